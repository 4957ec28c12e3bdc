package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/spf13/cobra"
)

var (
	activityByModel bool
	activityDaily   bool
	activityYear    int
)

// Heat levels for the daily view, darkest to brightest
var heatStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show conversation activity over time",
	Long: `Show how many conversations were started per month, or per day
as a calendar heatmap.

Examples:
  gptrider activity
  gptrider activity --by-model
  gptrider activity --year 2023
  gptrider activity --daily --year 2024`,
	RunE: runActivity,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().BoolVar(&activityByModel, "by-model", false, "Split monthly counts by model")
	activityCmd.Flags().BoolVar(&activityDaily, "daily", false, "Show a daily heatmap instead of monthly counts")
	activityCmd.Flags().IntVar(&activityYear, "year", 0, "Restrict to a year (default for --daily: current year)")
}

func runActivity(cmd *cobra.Command, args []string) error {
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

	if activityDaily {
		year := activityYear
		if year == 0 {
			year = time.Now().UTC().Year()
		}

		counts := analytics.DailyCounts(rows, year)
		if len(counts) == 0 {
			fmt.Printf("No activity in %d\n", year)
			return nil
		}

		fmt.Printf("Daily activity for %d\n\n", year)
		fmt.Print(renderDailyHeatmap(counts, year))
		fmt.Println()
		fmt.Printf("     Less %s%s%s%s More\n",
			heatStyles[1].Render("■"),
			heatStyles[2].Render("■"),
			heatStyles[3].Render("■"),
			heatStyles[4].Render("■"))
		return nil
	}

	if activityYear != 0 {
		rows = analytics.FilterWindow(rows, analytics.YearWindow(activityYear))
	}

	months := analytics.MonthlyCounts(rows, activityByModel)
	if len(months) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	maxCount := 0
	for _, m := range months {
		if m.Count > maxCount {
			maxCount = m.Count
		}
	}

	for _, m := range months {
		bar := scaleBar(m.Count, maxCount, 40)
		if activityByModel {
			fmt.Printf("%s  %-20s %4d %s\n", m.Month, m.Model, m.Count, bar)
		} else {
			fmt.Printf("%s  %4d %s\n", m.Month, m.Count, bar)
		}
	}

	return nil
}

// scaleBar renders a count as a bar relative to the largest value
func scaleBar(count, max, width int) string {
	if max == 0 || count == 0 {
		return ""
	}
	filled := count * width / max
	if filled < 1 {
		filled = 1
	}
	return strings.Repeat("█", filled)
}

// renderDailyHeatmap draws a calendar-style grid, one column per week,
// shaded by how busy each day was
func renderDailyHeatmap(counts map[string]int, year int) string {
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	// Grid starts on the Sunday on or before Jan 1
	gridStart := jan1.AddDate(0, 0, -int(jan1.Weekday()))
	weeks := int(dec31.Sub(gridStart).Hours()/24/7) + 1

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder

	// Month labels above the week where each month starts
	header := make([]byte, weeks)
	for i := range header {
		header[i] = ' '
	}
	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		col := int(first.Sub(gridStart).Hours() / 24 / 7)
		label := first.Format("Jan")
		for j := 0; j < len(label) && col+j < weeks; j++ {
			header[col+j] = label[j]
		}
	}
	b.WriteString("     " + string(header) + "\n")

	dayLabels := map[int]string{1: "Mon", 3: "Wed", 5: "Fri"}
	for dow := 0; dow < 7; dow++ {
		if label, ok := dayLabels[dow]; ok {
			b.WriteString(label + "  ")
		} else {
			b.WriteString("     ")
		}
		for week := 0; week < weeks; week++ {
			day := gridStart.AddDate(0, 0, week*7+dow)
			if day.Before(jan1) || day.After(dec31) {
				b.WriteString(" ")
				continue
			}
			b.WriteString(heatCell(counts[day.Format("2006-01-02")], maxCount))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func heatCell(count, max int) string {
	if count == 0 || max == 0 {
		return heatStyles[0].Render("·")
	}
	level := (count*4 + max - 1) / max
	if level > 4 {
		level = 4
	}
	if level < 1 {
		level = 1
	}
	return heatStyles[level].Render("■")
}
