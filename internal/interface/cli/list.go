package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/spf13/cobra"
)

var (
	listLimit int
	listModel string
	listVoice bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Long: `List imported conversations in reverse chronological order.

Shows titles, models, message counts, and timestamps.

Examples:
  gptrider list
  gptrider list --limit 10
  gptrider list --model gpt-4
  gptrider list --voice`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of conversations to display")
	listCmd.Flags().StringVar(&listModel, "model", "", "Filter by model slug")
	listCmd.Flags().BoolVar(&listVoice, "voice", false, "Only show voice conversations")
}

func runList(cmd *cobra.Command, args []string) error {
	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	conversations, err := database.ListConversations(listModel, listVoice, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	// Display results
	if len(conversations) == 0 {
		if listModel != "" {
			fmt.Printf("No conversations found for model: %s\n", listModel)
		} else {
			fmt.Println("No conversations found. Run 'gptrider import' to import an archive.")
		}
		return nil
	}

	fmt.Printf("Showing %d conversation(s)", len(conversations))
	if listModel != "" {
		fmt.Printf(" for model: %s", listModel)
	}
	fmt.Println()
	fmt.Println()

	for i, c := range conversations {
		fmt.Printf("[%d] %s\n", i+1, truncateTitle(c.Title, 80))
		if c.ModelSlug != "" {
			fmt.Printf("    Model: %s\n", c.ModelSlug)
		}
		if c.HasVoice {
			fmt.Printf("    Voice: yes\n")
		}
		fmt.Printf("    Messages: %d\n", c.MessageCount)
		if c.CreateTime != nil {
			fmt.Printf("    Started: %s\n", formatTimestamp(*c.CreateTime))
		}
		fmt.Println()
	}

	return nil
}

// truncateTitle truncates long titles for display
func truncateTitle(title string, maxLen int) string {
	// Remove newlines and excessive whitespace
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.Join(strings.Fields(title), " ")

	if len(title) <= maxLen {
		return title
	}

	// Find a good break point (end of word)
	truncated := title[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen-20 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

// formatTimestamp formats a timestamp in a human-friendly way
func formatTimestamp(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	// Less than a minute
	if diff < time.Minute {
		return "just now"
	}

	// Less than an hour
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}

	// Less than a day
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	// Less than a week
	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}

	// Less than a month
	if diff < 30*24*time.Hour {
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}

	// Show formatted date
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}

	return t.Format("Jan 2, 2006")
}
