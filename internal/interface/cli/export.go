package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/pkg/chatarchive"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized conversations",
	Long: `Export the normalized conversation rows as CSV or JSON.

Useful for loading the archive into spreadsheets or other tools.

Examples:
  gptrider export
  gptrider export --format json
  gptrider export --output conversations.csv`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unsupported format: %s (use csv or json)", exportFormat)
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

	out := io.Writer(os.Stdout)
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	switch exportFormat {
	case "json":
		err = writeJSON(out, rows)
	default:
		err = writeCSV(out, rows)
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if exportOutput != "" {
		fmt.Printf("Exported %d conversations to: %s\n", len(rows), exportOutput)
	}

	return nil
}

func writeCSV(w io.Writer, rows []chatarchive.Conversation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"conversation_id", "title", "create_time", "model", "voice", "message_count"}); err != nil {
		return err
	}
	for _, c := range rows {
		createTime := ""
		if c.CreateTime != nil {
			createTime = c.CreateTime.UTC().Format(time.RFC3339)
		}
		record := []string{
			c.ConversationID,
			c.Title,
			createTime,
			c.ModelSlug,
			strconv.FormatBool(c.HasVoice),
			strconv.Itoa(c.MessageCount),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, rows []chatarchive.Conversation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
