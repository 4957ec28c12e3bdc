package cli

import (
	"fmt"

	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/spf13/cobra"
)

var modelsYear int

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show model usage distribution",
	Long: `Show how conversations are distributed across models, most used
first. Conversations without a recorded model are grouped as Unknown.

Examples:
  gptrider models
  gptrider models --year 2024`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().IntVar(&modelsYear, "year", 0, "Restrict to a year")
}

func runModels(cmd *cobra.Command, args []string) error {
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

	if modelsYear != 0 {
		rows = analytics.FilterWindow(rows, analytics.YearWindow(modelsYear))
	}

	shares := analytics.ModelDistribution(rows)
	if len(shares) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	total := 0
	for _, s := range shares {
		total += s.Count
	}

	for _, s := range shares {
		// Half a bar char per percent keeps the widest bar at 50
		bar := scaleBar(int(s.Percent*10), 1000, 50)
		fmt.Printf("%-24s %5d  %5.1f%% %s\n", s.Model, s.Count, s.Percent, bar)
	}

	fmt.Printf("\nTotal: %d conversations\n", total)
	return nil
}
