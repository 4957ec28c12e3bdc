package importer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/models"
	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

// ArchiveFileName is the conversations file found inside a ChatGPT data export
const ArchiveFileName = "conversations.json"

// ImportResult summarizes the outcome of importing one archive file
type ImportResult struct {
	FilePath string
	Imported int
	Skipped  bool // file content already imported
}

// Importer handles importing conversation archives into the database
type Importer struct {
	db *db.DB
}

// New creates a new importer
func New(database *db.DB) *Importer {
	return &Importer{db: database}
}

// ImportFile imports a single conversations.json archive. Files whose content
// hash already appears in the import log are skipped unless force is set;
// force also removes rows previously imported from the same path so the file
// replaces its own earlier imports.
func (i *Importer) ImportFile(path string, force bool) (*ImportResult, error) {
	result := &ImportResult{FilePath: path}

	// Compute file hash
	hash, err := computeFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	// Check if already imported
	var exists bool
	err = i.db.QueryRow("SELECT EXISTS(SELECT 1 FROM import_log WHERE file_hash = ?)", hash).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check import log: %w", err)
	}

	if exists && !force {
		result.Skipped = true
		return result, nil
	}

	if force {
		if err := i.db.DeleteBySourceFile(path); err != nil {
			return nil, fmt.Errorf("failed to clear previous import: %w", err)
		}
	}

	conversations, err := chatarchive.ParseFile(path)
	if err != nil {
		return nil, err
	}

	var fileSize int64
	if info, err := os.Stat(path); err == nil {
		fileSize = info.Size()
	}

	// Begin transaction
	tx, err := i.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for idx, c := range conversations {
		conv := models.Conversation{
			ConversationID: c.ConversationID,
			Title:          c.Title,
			CreateTime:     c.CreateTime,
			ModelSlug:      c.ModelSlug,
			HasVoice:       c.HasVoice,
			MessageCount:   c.MessageCount,
			SourceFile:     path,
		}
		if err := conv.Validate(); err != nil {
			return nil, fmt.Errorf("invalid conversation %d: %w", idx, err)
		}

		if err := insertConversation(tx, conv); err != nil {
			return nil, fmt.Errorf("failed to insert conversation %d: %w", idx, err)
		}
	}

	// Record import
	_, err = tx.Exec(`
		INSERT INTO import_log (file_path, file_hash, file_size, conversations_imported, status)
		VALUES (?, ?, ?, ?, 'success')
	`, path, hash, fileSize, len(conversations))
	if err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	result.Imported = len(conversations)
	return result, nil
}

// insertConversation writes one normalized conversation. Records that carry a
// conversation id upsert on it so re-imports refresh the row; records without
// one always insert, since NULL ids never collide.
func insertConversation(tx *sql.Tx, conv models.Conversation) error {
	if conv.ConversationID == "" {
		_, err := tx.Exec(`
			INSERT INTO conversations (
				conversation_id, title, create_time, model_slug,
				has_voice, message_count, source_file
			) VALUES (NULL, ?, ?, ?, ?, ?, ?)
		`,
			nullable(conv.Title),
			timeValue(conv.CreateTime),
			nullable(conv.ModelSlug),
			conv.HasVoice,
			conv.MessageCount,
			conv.SourceFile,
		)
		return err
	}

	_, err := tx.Exec(`
		INSERT INTO conversations (
			conversation_id, title, create_time, model_slug,
			has_voice, message_count, source_file
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			title = excluded.title,
			create_time = excluded.create_time,
			model_slug = excluded.model_slug,
			has_voice = excluded.has_voice,
			message_count = excluded.message_count,
			source_file = excluded.source_file
	`,
		conv.ConversationID,
		nullable(conv.Title),
		timeValue(conv.CreateTime),
		nullable(conv.ModelSlug),
		conv.HasVoice,
		conv.MessageCount,
		conv.SourceFile,
	)
	return err
}

// ImportDirectory imports every conversations.json found under a directory
// tree. Files that fail to parse or import are reported and skipped.
func (i *Importer) ImportDirectory(dirPath string, force bool, progress *ProgressReporter) ([]*ImportResult, error) {
	// Find all archive files
	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Base(path) == ArchiveFileName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Import each file
	var results []*ImportResult
	for _, file := range files {
		result, err := i.ImportFile(file, force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to import %s: %v\n", file, err)
			continue
		}
		results = append(results, result)

		// Update progress
		if progress != nil {
			detail := fmt.Sprintf("%d conversations", result.Imported)
			if result.Skipped {
				detail = "already imported"
			}
			progress.Update(filepath.Base(filepath.Dir(file)), detail)
		}
	}

	return results, nil
}

// ImportPath imports a single archive file or a directory of archives
func (i *Importer) ImportPath(path string, force bool, progress *ProgressReporter) ([]*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return i.ImportDirectory(path, force, progress)
	}

	result, err := i.ImportFile(path, force)
	if err != nil {
		return nil, err
	}
	return []*ImportResult{result}, nil
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// nullable maps empty strings to NULL so absent fields stay absent in SQL
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// timeValue stores timestamps as RFC3339Nano UTC strings
func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
