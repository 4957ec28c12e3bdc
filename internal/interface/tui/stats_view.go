package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/db"
)

func createStatsViewport(content string, width, height int) viewport.Model {
	vp := viewport.New(width, height-2)
	vp.SetContent(content)
	return vp
}

func (m Model) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.mode = listView
		return m, nil

	case "?":
		m.mode = helpView
		return m, nil
	}

	// Viewport handles j/k, d/u, pgup/pgdn, g/G
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) viewStats() string {
	footer := helpStyle.Render("↑/↓ j/k scroll • d/u half page • esc/q back • ? help")
	return titleStyle.Render("Archive Stats") + "\n" + m.viewport.View() + "\n" + footer
}

// renderStats builds the dashboard content: archive totals, current-year
// KPIs with deltas against last year, monthly activity, model distribution,
// and top title words.
func renderStats(database *db.DB, width int) (string, error) {
	stats, err := database.GetStats()
	if err != nil {
		return "", err
	}
	rows, err := database.AllConversations()
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Totals") + "\n")
	b.WriteString(fmt.Sprintf("  Conversations: %s\n", humanize.Comma(int64(stats.TotalConversations))))
	b.WriteString(fmt.Sprintf("  Messages:      %s\n", humanize.Comma(int64(stats.TotalMessages))))
	b.WriteString(fmt.Sprintf("  Voice:         %s\n", humanize.Comma(int64(stats.VoiceConversations))))
	if !stats.OldestConversation.IsZero() {
		b.WriteString(fmt.Sprintf("  Range:         %s to %s\n",
			stats.OldestConversation.Format("Jan 2, 2006"),
			stats.NewestConversation.Format("Jan 2, 2006")))
	}
	if stats.MostActiveModel != "" {
		b.WriteString(fmt.Sprintf("  Top model:     %s (%d conversations)\n",
			stats.MostActiveModel, stats.MostActiveModelCount))
	}
	b.WriteString("\n")

	year := time.Now().UTC().Year()
	window := analytics.YearWindow(year)
	previousWindow := analytics.YearWindow(year - 1)
	current := analytics.ComputeKPIs(rows, window)
	previous := analytics.ComputeKPIs(rows, previousWindow)
	hasPrevious := len(analytics.FilterWindow(rows, previousWindow)) > 0

	b.WriteString(titleStyle.Render(fmt.Sprintf("This Year (%d)", year)) + "\n")
	b.WriteString(fmt.Sprintf("  Conversations: %d%s\n", current.TotalConversations,
		statsDelta(float64(current.TotalConversations), float64(previous.TotalConversations), hasPrevious)))
	b.WriteString(fmt.Sprintf("  Avg messages:  %.1f%s\n", current.AvgMessages,
		statsDelta(current.AvgMessages, previous.AvgMessages, hasPrevious)))
	b.WriteString(fmt.Sprintf("  Voice:         %d\n", current.VoiceCount))
	b.WriteString("\n")

	months := analytics.MonthlyCounts(analytics.FilterWindow(rows, window), false)
	if len(months) > 0 {
		b.WriteString(titleStyle.Render("Monthly Activity") + "\n")
		peak := 0
		for _, mc := range months {
			if mc.Count > peak {
				peak = mc.Count
			}
		}
		for _, mc := range months {
			b.WriteString(fmt.Sprintf("  %s  %4d %s\n", mc.Month, mc.Count, statsBar(mc.Count, peak, barWidth(width))))
		}
		b.WriteString("\n")
	}

	shares := analytics.ModelDistribution(rows)
	if len(shares) > 8 {
		shares = shares[:8]
	}
	if len(shares) > 0 {
		b.WriteString(titleStyle.Render("Models") + "\n")
		for _, s := range shares {
			b.WriteString(fmt.Sprintf("  %-24s %5d  %5.1f%%\n", s.Model, s.Count, s.Percent))
		}
		b.WriteString("\n")
	}

	words := analytics.WordFrequencies(analytics.Titles(rows), analytics.DefaultMinWordLength)
	if len(words) > 15 {
		words = words[:15]
	}
	if len(words) > 0 {
		b.WriteString(titleStyle.Render("Top Title Words") + "\n")
		peak := words[0].Count
		for _, wc := range words {
			b.WriteString(fmt.Sprintf("  %-20s %4d %s\n", wc.Word, wc.Count, statsBar(wc.Count, peak, barWidth(width))))
		}
	}

	return b.String(), nil
}

func statsDelta(current, previous float64, hasPrevious bool) string {
	if !hasPrevious {
		return ""
	}
	return searchMetaStyle.Render(fmt.Sprintf("  (%+.1f%% vs last year)", analytics.PercentChange(current, previous)))
}

func statsBar(count, peak, width int) string {
	if peak <= 0 || width <= 0 {
		return ""
	}
	n := count * width / peak
	if n < 1 && count > 0 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

func barWidth(width int) int {
	w := width - 34
	if w > 40 {
		w = 40
	}
	if w < 10 {
		w = 10
	}
	return w
}
