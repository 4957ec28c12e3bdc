package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/search"
	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search conversation titles using full-text search",
	Long: `Search through all imported conversations.

Uses FTS5 full-text search with porter stemming. Filter tokens can be
mixed into the query:

  model:gpt-4        only conversations with that model
  after:2024-01-01   only conversations on or after the date
  before:yesterday   only conversations before the date

Examples:
  gptrider search "trip planning"
  gptrider search spain model:gpt-4o
  gptrider search recipes after:2024-06 --limit 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum number of results to show")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Join all args as query
	query := strings.Join(args, " ")

	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	// Use unified search backend (same as TUI/MCP)
	filters := search.ParseQuery(query)

	results, err := search.SearchFiltered(database, filters, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// Display results
	if len(results) == 0 {
		fmt.Printf("No results found for: %s\n", query)
		return nil
	}

	fmt.Printf("Found %d conversation(s) for: %s\n", len(results), query)
	fmt.Println()

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("[%d] %s\n", i+1, truncateTitle(title, 80))
		if r.ModelSlug != "" {
			fmt.Printf("    Model: %s\n", r.ModelSlug)
		}
		fmt.Printf("    Messages: %d\n", r.MessageCount)
		if when := displayTime(r.CreateTime); when != "" {
			fmt.Printf("    Started: %s\n", when)
		}
		fmt.Println()
	}

	return nil
}

// displayTime renders a stored timestamp string relative to now
func displayTime(ts string) string {
	if ts == "" {
		return ""
	}
	for _, format := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(format, ts); err == nil {
			return formatTimestamp(t)
		}
	}
	return ts
}
