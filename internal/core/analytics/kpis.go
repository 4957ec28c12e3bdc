package analytics

import "github.com/neilberkman/gptrider/pkg/chatarchive"

// KPIs is the headline summary for one time window.
type KPIs struct {
	TotalConversations int     `json:"total_conversations"`
	AvgMessages        float64 `json:"avg_messages"`
	VoiceCount         int     `json:"voice_count"`
}

// ComputeKPIs summarizes the rows whose create_time falls in the window.
// TotalConversations counts distinct non-null conversation ids in the
// subset; AvgMessages is the mean message count over the subset, 0 (never
// NaN) when it is empty; VoiceCount counts voice-mode rows in the subset.
func ComputeKPIs(rows []chatarchive.Conversation, w Window) KPIs {
	subset := FilterWindow(rows, w)

	seen := make(map[string]struct{})
	messages := 0
	voice := 0
	for _, row := range subset {
		messages += row.MessageCount
		if row.HasVoice {
			voice++
		}
		if row.ConversationID != "" {
			seen[row.ConversationID] = struct{}{}
		}
	}

	kpis := KPIs{
		TotalConversations: len(seen),
		VoiceCount:         voice,
	}
	if len(subset) > 0 {
		kpis.AvgMessages = float64(messages) / float64(len(subset))
	}
	return kpis
}

// PercentChange returns the signed percentage delta from previous to
// current. A zero baseline returns 0 by convention rather than an undefined
// value; callers that must distinguish "no baseline" from "no change" check
// the baseline themselves and render "n/a".
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
