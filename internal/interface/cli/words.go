package cli

import (
	"fmt"

	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/config"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/spf13/cobra"
)

var (
	wordsTop       int
	wordsMinLength int
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Show frequent words from conversation titles",
	Long: `Count the words appearing in conversation titles, most frequent
first. Short words are skipped; the cutoff and result count come from
config.toml unless overridden by flags.

Examples:
  gptrider words
  gptrider words --top 10
  gptrider words --min-length 5`,
	RunE: runWords,
}

func init() {
	rootCmd.AddCommand(wordsCmd)
	wordsCmd.Flags().IntVar(&wordsTop, "top", 0, "How many words to show (default from config)")
	wordsCmd.Flags().IntVar(&wordsMinLength, "min-length", 0, "Minimum word length (default from config)")
}

func runWords(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()

	top := wordsTop
	if top <= 0 {
		top = cfg.TopWords
	}
	minLength := wordsMinLength
	if minLength <= 0 {
		minLength = cfg.MinWordLength
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

	frequencies := analytics.WordFrequencies(analytics.Titles(rows), minLength)
	if len(frequencies) == 0 {
		fmt.Println("No titled conversations found.")
		return nil
	}

	if len(frequencies) > top {
		frequencies = frequencies[:top]
	}

	maxCount := frequencies[0].Count
	for _, w := range frequencies {
		fmt.Printf("%-20s %4d %s\n", w.Word, w.Count, scaleBar(w.Count, maxCount, 40))
	}

	return nil
}
