package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/cbroglie/mustache"
	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/config"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/pkg/chatarchive"
	"github.com/spf13/cobra"
)

var (
	reportYear   int
	reportOutput string
	reportCopy   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a year-in-review report",
	Long: `Render a shareable year-in-review summary from the report template.

The template lives at ~/.config/gptrider/report_template.txt and uses
mustache syntax; without one, a built-in template is used.

Examples:
  gptrider report
  gptrider report --year 2023
  gptrider report --output review.txt
  gptrider report --copy`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "Year to report on (default: current year)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file")
	reportCmd.Flags().BoolVar(&reportCopy, "copy", false, "Copy the report to the clipboard")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()

	year := reportYear
	if year == 0 {
		year = time.Now().UTC().Year()
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

	report, err := buildReport(rows, year, cfg.ReportTemplate, cfg.MinWordLength)
	if err != nil {
		return err
	}

	if reportOutput != "" {
		if err := os.WriteFile(reportOutput, []byte(report), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOutput)
	}
	if reportCopy {
		if err := clipboard.WriteAll(report); err != nil {
			return fmt.Errorf("failed to copy report: %w", err)
		}
		fmt.Println("Report copied to clipboard")
	}
	if reportOutput == "" && !reportCopy {
		fmt.Print(report)
	}

	return nil
}

// buildReport assembles the template data for one year and renders it
func buildReport(rows []chatarchive.Conversation, year int, template string, minWordLength int) (string, error) {
	window := analytics.YearWindow(year)
	previous := analytics.YearWindow(year - 1)

	current := analytics.ComputeKPIs(rows, window)
	baseline := analytics.ComputeKPIs(rows, previous)
	hasPrevious := len(analytics.FilterWindow(rows, previous)) > 0

	yearRows := analytics.FilterWindow(rows, window)

	var busiestMonth string
	busiestCount := 0
	for _, m := range analytics.MonthlyCounts(yearRows, false) {
		if m.Count > busiestCount {
			busiestMonth, busiestCount = m.Month, m.Count
		}
	}
	if t, err := time.Parse("2006-01", busiestMonth); err == nil {
		busiestMonth = t.Format("January")
	}

	shares := analytics.ModelDistribution(yearRows)
	if len(shares) > 5 {
		shares = shares[:5]
	}
	models := make([]map[string]interface{}, 0, len(shares))
	for _, s := range shares {
		models = append(models, map[string]interface{}{
			"name":    s.Model,
			"count":   s.Count,
			"percent": fmt.Sprintf("%.1f", s.Percent),
		})
	}

	frequencies := analytics.WordFrequencies(analytics.Titles(yearRows), minWordLength)
	if len(frequencies) > 10 {
		frequencies = frequencies[:10]
	}
	words := make([]map[string]interface{}, 0, len(frequencies))
	for _, w := range frequencies {
		words = append(words, map[string]interface{}{
			"word":  w.Word,
			"count": w.Count,
		})
	}

	data := map[string]interface{}{
		"year":                year,
		"total_conversations": current.TotalConversations,
		"avg_messages":        fmt.Sprintf("%.1f", current.AvgMessages),
		"voice_count":         current.VoiceCount,
		"has_previous":        hasPrevious,
		"previous_year":       year - 1,
		"conversations_delta": deltaText(float64(current.TotalConversations), float64(baseline.TotalConversations), hasPrevious),
		"messages_delta":      deltaText(current.AvgMessages, baseline.AvgMessages, hasPrevious),
		"has_busiest":         busiestMonth != "",
		"busiest_month":       busiestMonth,
		"busiest_month_count": busiestCount,
		"has_models":          len(models) > 0,
		"models":              models,
		"has_words":           len(words) > 0,
		"words":               words,
	}

	rendered, err := mustache.Render(template, data)
	if err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return rendered, nil
}

func deltaText(current, previous float64, baselineHasData bool) string {
	if !baselineHasData {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", analytics.PercentChange(current, previous))
}
