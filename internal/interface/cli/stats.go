package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/search"
	"github.com/spf13/cobra"
)

var (
	statsYear  int
	statsSince string
	statsUntil string
)

var (
	deltaUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	deltaDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	deltaDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics",
	Long: `Display usage statistics for a time window, compared against the
window before it.

By default the current year is compared with the previous year. Use --year
for a different year, or --since/--until for a custom range (compared with
the same-length period preceding it). Dates accept natural language.

Examples:
  gptrider stats
  gptrider stats --year 2023
  gptrider stats --since 2024-06-01 --until 2024-09-01
  gptrider stats --since "last january"`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsYear, "year", 0, "Year to report on (default: current year)")
	statsCmd.Flags().StringVar(&statsSince, "since", "", "Start of a custom range")
	statsCmd.Flags().StringVar(&statsUntil, "until", "", "End of a custom range (exclusive)")
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsYear != 0 && (statsSince != "" || statsUntil != "") {
		return fmt.Errorf("cannot combine --year with --since/--until")
	}

	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	rows, err := database.AllConversations()
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	window, previous, label, prevLabel, err := resolveWindows()
	if err != nil {
		return err
	}

	current := analytics.ComputeKPIs(rows, window)
	baseline := analytics.ComputeKPIs(rows, previous)
	baselineHasData := !previous.IsZero() && len(analytics.FilterWindow(rows, previous)) > 0

	title := fmt.Sprintf("Conversation Statistics: %s", label)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Println()

	fmt.Printf("Conversations:  %d%s\n", current.TotalConversations,
		renderDelta(float64(current.TotalConversations), float64(baseline.TotalConversations), baselineHasData, prevLabel))
	fmt.Printf("Avg Messages:   %.1f%s\n", current.AvgMessages,
		renderDelta(current.AvgMessages, baseline.AvgMessages, baselineHasData, prevLabel))
	fmt.Printf("Voice:          %d%s\n", current.VoiceCount,
		renderDelta(float64(current.VoiceCount), float64(baseline.VoiceCount), baselineHasData, prevLabel))

	// Archive-wide totals
	stats, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	fmt.Println()
	fmt.Println("Archive Totals")
	fmt.Println("--------------")
	fmt.Printf("Conversations:     %d\n", stats.TotalConversations)
	fmt.Printf("Messages:          %d\n", stats.TotalMessages)
	fmt.Printf("Voice:             %d\n", stats.VoiceConversations)
	if !stats.OldestConversation.IsZero() {
		fmt.Printf("Oldest:            %s\n", stats.OldestConversation.Format("Jan 2, 2006"))
	}
	if !stats.NewestConversation.IsZero() {
		fmt.Printf("Newest:            %s\n", stats.NewestConversation.Format("Jan 2, 2006"))
	}
	if stats.MostActiveModel != "" {
		fmt.Printf("Top Model:         %s (%d conversations)\n", stats.MostActiveModel, stats.MostActiveModelCount)
	}

	// Database file size
	fileInfo, err := os.Stat(dbPath)
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Database Location: %s\n", dbPath)
	fmt.Printf("Database Size:     %s\n", formatBytes(fileInfo.Size()))

	return nil
}

// resolveWindows picks the report window and its comparison baseline
func resolveWindows() (analytics.Window, analytics.Window, string, string, error) {
	if statsSince != "" || statsUntil != "" {
		var window analytics.Window
		if statsSince != "" {
			t := search.ParseDate(statsSince)
			if t == nil {
				return analytics.Window{}, analytics.Window{}, "", "", fmt.Errorf("cannot parse --since date: %s", statsSince)
			}
			window.Start = *t
		}
		if statsUntil != "" {
			t := search.ParseDate(statsUntil)
			if t == nil {
				return analytics.Window{}, analytics.Window{}, "", "", fmt.Errorf("cannot parse --until date: %s", statsUntil)
			}
			window.End = *t
		}
		return window, window.Previous(), describeWindow(window), "preceding period", nil
	}

	year := statsYear
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	// Calendar years compare against the full previous year
	window := analytics.YearWindow(year)
	previous := analytics.YearWindow(year - 1)
	return window, previous, fmt.Sprintf("%d", year), fmt.Sprintf("%d", year-1), nil
}

func describeWindow(w analytics.Window) string {
	switch {
	case !w.Start.IsZero() && !w.End.IsZero():
		return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	case !w.Start.IsZero():
		return fmt.Sprintf("since %s", w.Start.Format("2006-01-02"))
	case !w.End.IsZero():
		return fmt.Sprintf("until %s", w.End.Format("2006-01-02"))
	default:
		return "all time"
	}
}

// renderDelta shows the change against the baseline window, dimmed as n/a
// when the baseline has no conversations to compare against
func renderDelta(current, previous float64, baselineHasData bool, vsLabel string) string {
	if !baselineHasData {
		return " " + deltaDimStyle.Render(fmt.Sprintf("(n/a vs %s)", vsLabel))
	}

	pct := analytics.PercentChange(current, previous)
	text := fmt.Sprintf("(%+.1f%% vs %s)", pct, vsLabel)
	switch {
	case pct > 0:
		return " " + deltaUpStyle.Render(text)
	case pct < 0:
		return " " + deltaDownStyle.Render(text)
	default:
		return " " + deltaDimStyle.Render(text)
	}
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
