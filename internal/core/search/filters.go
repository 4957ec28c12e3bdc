package search

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Filters are structured constraints carried alongside a search query
type Filters struct {
	Query  string
	Model  string
	After  *time.Time
	Before *time.Time
}

// ParseQuery extracts filter tokens from a raw query string.
// Supported tokens:
//
//	model:gpt-4        only conversations with that model slug
//	after:2024-01-01   only conversations on or after the date
//	before:yesterday   only conversations strictly before the date
//
// Everything else stays in the query text. Dates accept natural language
// ("yesterday", "last friday") as well as 2024-06-15, 2024-06 and 2024 forms.
func ParseQuery(raw string) Filters {
	var f Filters
	var queryWords []string

	for _, token := range strings.Fields(raw) {
		lower := strings.ToLower(token)
		switch {
		case strings.HasPrefix(lower, "model:"):
			f.Model = token[len("model:"):]
		case strings.HasPrefix(lower, "after:"):
			f.After = ParseDate(token[len("after:"):])
		case strings.HasPrefix(lower, "before:"):
			f.Before = ParseDate(token[len("before:"):])
		default:
			queryWords = append(queryWords, token)
		}
	}

	f.Query = strings.Join(queryWords, " ")
	return f
}

// ParseDate parses a user-supplied date, trying natural language first and
// falling back to common formats. Returns nil when nothing matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		t := r.Time
		return &t
	}

	formats := []string{
		"2006-01-02",
		"2006-01",
		"2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}

	return nil
}
