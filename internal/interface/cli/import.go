package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neilberkman/gptrider/internal/core/config"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/importer"
	"github.com/spf13/cobra"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import ChatGPT conversation archives",
	Long: `Import conversations from a ChatGPT data export.

The path may be a conversations.json file or a directory tree containing
exports. Without a path, the export_dir from config.toml is scanned.
Files whose content was already imported are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Re-import files even if already imported")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	// Determine source path
	var sourcePath string
	if len(args) > 0 {
		sourcePath = args[0]
	} else {
		cfg, _ := config.Load()
		sourcePath = cfg.ExportDir
	}
	if sourcePath == "" {
		return fmt.Errorf("no path given and no export_dir configured")
	}

	fmt.Printf("Importing conversations from: %s\n", sourcePath)
	fmt.Printf("Database: %s\n\n", dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	imp := importer.New(database)
	var results []*importer.ImportResult

	if info.IsDir() {
		// Count total files for progress
		total, err := countArchiveFiles(sourcePath)
		if err != nil {
			return fmt.Errorf("failed to count files: %w", err)
		}

		if total == 0 {
			fmt.Println("No conversations.json files found")
			return nil
		}

		progress := importer.NewProgressReporter(os.Stdout, total)
		results, err = imp.ImportDirectory(sourcePath, importForce, progress)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		progress.Finish()
	} else {
		results, err = imp.ImportPath(sourcePath, importForce, nil)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}

	imported, skipped := 0, 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		imported += r.Imported
	}

	fmt.Printf("Imported %d conversations", imported)
	if skipped > 0 {
		fmt.Printf(" (%d files already imported)", skipped)
	}
	fmt.Println()

	return nil
}

func countArchiveFiles(dirPath string) (int, error) {
	count := 0
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Base(path) == importer.ArchiveFileName {
			count++
		}
		return nil
	})
	return count, err
}
