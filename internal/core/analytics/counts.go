package analytics

import (
	"math"
	"sort"

	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

// UnknownModel is the sentinel label substituted for a missing model slug.
const UnknownModel = "Unknown"

// ModelLabel normalizes a model slug for grouping. Missing slugs become the
// sentinel instead of being dropped.
func ModelLabel(slug string) string {
	if slug == "" {
		return UnknownModel
	}
	return slug
}

// MonthlyCount is the distinct-conversation count for one month bucket,
// optionally split by model.
type MonthlyCount struct {
	Month string `json:"month"`
	Model string `json:"model,omitempty"`
	Count int    `json:"count"`
}

// MonthlyCounts buckets rows by "YYYY-MM" month key, counting distinct
// non-null conversation ids per bucket so a conversation appearing in
// multiple rows is counted once. With byModel each month is further split by
// model label. Sorted by month, then model.
func MonthlyCounts(rows []chatarchive.Conversation, byModel bool) []MonthlyCount {
	type bucket struct {
		month string
		model string
	}
	ids := make(map[bucket]map[string]struct{})

	for _, row := range rows {
		if row.CreateTime == nil || row.ConversationID == "" {
			continue
		}
		b := bucket{month: row.CreateTime.Format("2006-01")}
		if byModel {
			b.model = ModelLabel(row.ModelSlug)
		}
		set, ok := ids[b]
		if !ok {
			set = make(map[string]struct{})
			ids[b] = set
		}
		set[row.ConversationID] = struct{}{}
	}

	out := make([]MonthlyCount, 0, len(ids))
	for b, set := range ids {
		out = append(out, MonthlyCount{Month: b.month, Model: b.model, Count: len(set)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// DailyCounts returns the conversation count per calendar date
// ("YYYY-MM-DD") for rows created in the given year. Dates with no
// conversations are absent; callers needing a dense calendar fill the gaps.
func DailyCounts(rows []chatarchive.Conversation, year int) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		if row.CreateTime == nil || row.CreateTime.Year() != year {
			continue
		}
		counts[row.CreateTime.Format("2006-01-02")]++
	}
	return counts
}

// ModelShare is one model's slice of the total.
type ModelShare struct {
	Model   string  `json:"model"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ModelDistribution counts rows per model label across the whole table.
// Percentages are rounded to one decimal. Ordering is descending by count
// with ties kept in first-seen order.
func ModelDistribution(rows []chatarchive.Conversation) []ModelShare {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		label := ModelLabel(row.ModelSlug)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	total := len(rows)
	out := make([]ModelShare, 0, len(order))
	for _, label := range order {
		count := counts[label]
		share := ModelShare{Model: label, Count: count}
		if total > 0 {
			share.Percent = math.Round(float64(count)/float64(total)*1000) / 10
		}
		out = append(out, share)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
