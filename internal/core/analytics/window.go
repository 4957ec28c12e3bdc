package analytics

import (
	"time"

	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

// Window is a half-open time range [Start, End). A zero bound leaves that
// side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// YearWindow covers one calendar year in UTC.
func YearWindow(year int) Window {
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are unset.
func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Bounded reports whether both bounds are set.
func (w Window) Bounded() bool { return !w.Start.IsZero() && !w.End.IsZero() }

// Previous returns the window of the same length immediately before this
// one, for period-over-period comparisons of custom ranges. Calendar-year
// callers should compare against YearWindow(year-1) instead, since year
// lengths differ. Zero when either bound is unset.
func (w Window) Previous() Window {
	if !w.Bounded() {
		return Window{}
	}
	span := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-span), End: w.Start}
}

// FilterWindow returns the rows whose create_time falls in the window. Rows
// with a null create_time are excluded from every windowed aggregate.
func FilterWindow(rows []chatarchive.Conversation, w Window) []chatarchive.Conversation {
	out := make([]chatarchive.Conversation, 0, len(rows))
	for _, row := range rows {
		if row.CreateTime == nil {
			continue
		}
		if !w.Contains(*row.CreateTime) {
			continue
		}
		out = append(out, row)
	}
	return out
}
