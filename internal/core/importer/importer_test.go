package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

func newTestImporter(t *testing.T) (*Importer, *db.DB) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := db.New(tmpfile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return New(database), database
}

func writeArchive(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ArchiveFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleArchive = `[
	{"conversation_id": "conv-1", "title": "Planning a garden", "create_time": 1709640000, "default_model_slug": "gpt-4", "voice": null, "mapping": {"a": {}, "b": {}, "c": {}}},
	{"conversation_id": "conv-2", "title": "Voice memo", "create_time": 1709726400, "voice": "standard", "mapping": {"a": {}}},
	{}
]`

func TestImportFile(t *testing.T) {
	imp, database := newTestImporter(t)
	path := writeArchive(t, t.TempDir(), sampleArchive)

	result, err := imp.ImportFile(path, false)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if result.Skipped {
		t.Error("Expected fresh import, got skipped")
	}
	if result.Imported != 3 {
		t.Errorf("Expected 3 imported, got %d", result.Imported)
	}

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Expected 3 conversations, got %d", count)
	}

	// Full record round-trips with normalized fields
	var title, modelSlug, createTime, sourceFile string
	var hasVoice, messageCount int
	err = database.QueryRow(`
		SELECT title, model_slug, create_time, source_file, has_voice, message_count
		FROM conversations WHERE conversation_id = 'conv-1'
	`).Scan(&title, &modelSlug, &createTime, &sourceFile, &hasVoice, &messageCount)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Planning a garden" || modelSlug != "gpt-4" {
		t.Errorf("Unexpected title/model: %q, %q", title, modelSlug)
	}
	if createTime != "2024-03-05T12:00:00Z" {
		t.Errorf("Expected UTC RFC3339 create_time, got %q", createTime)
	}
	if sourceFile != path {
		t.Errorf("Expected source_file %q, got %q", path, sourceFile)
	}
	if hasVoice != 0 {
		t.Error("Expected null voice to import as non-voice")
	}
	if messageCount != 3 {
		t.Errorf("Expected message_count 3, got %d", messageCount)
	}

	// Voice flag survives import
	err = database.QueryRow(
		"SELECT has_voice FROM conversations WHERE conversation_id = 'conv-2'",
	).Scan(&hasVoice)
	if err != nil {
		t.Fatal(err)
	}
	if hasVoice != 1 {
		t.Error("Expected voice conversation flagged")
	}

	// Record without an id stores NULL
	err = database.QueryRow(
		"SELECT COUNT(*) FROM conversations WHERE conversation_id IS NULL",
	).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 NULL-id conversation, got %d", count)
	}

	// Import was logged
	var status string
	err = database.QueryRow("SELECT status FROM import_log WHERE file_path = ?", path).Scan(&status)
	if err != nil {
		t.Fatal(err)
	}
	if status != "success" {
		t.Errorf("Expected success status, got %q", status)
	}
}

func TestImportFile_DuplicateSkipped(t *testing.T) {
	imp, database := newTestImporter(t)
	path := writeArchive(t, t.TempDir(), sampleArchive)

	if _, err := imp.ImportFile(path, false); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	// Import the same file again
	result, err := imp.ImportFile(path, false)
	if err != nil {
		t.Fatalf("ImportFile() second import error = %v", err)
	}
	if !result.Skipped {
		t.Error("Expected duplicate import to be skipped")
	}
	if result.Imported != 0 {
		t.Errorf("Expected 0 imported on skip, got %d", result.Imported)
	}

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Expected 3 conversations after duplicate import, got %d", count)
	}

	err = database.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 import log entry, got %d", count)
	}
}

func TestImportFile_ForceReimport(t *testing.T) {
	imp, database := newTestImporter(t)
	path := writeArchive(t, t.TempDir(), sampleArchive)

	if _, err := imp.ImportFile(path, false); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	result, err := imp.ImportFile(path, true)
	if err != nil {
		t.Fatalf("ImportFile() force error = %v", err)
	}
	if result.Skipped {
		t.Error("Expected force import to run")
	}
	if result.Imported != 3 {
		t.Errorf("Expected 3 imported under force, got %d", result.Imported)
	}

	// Force replaces the file's own rows, so no duplicates from the NULL-id record
	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Expected 3 conversations after force reimport, got %d", count)
	}

	err = database.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 import log entry after force, got %d", count)
	}
}

func TestImportFile_ChangedFileRefreshesRows(t *testing.T) {
	imp, database := newTestImporter(t)
	dir := t.TempDir()
	path := writeArchive(t, dir, `[{"conversation_id": "conv-1", "title": "Old title", "mapping": {"a": {}}}]`)

	if _, err := imp.ImportFile(path, false); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	// Same path, new content: the hash differs so the import runs, and the
	// conversation id upsert refreshes the existing row
	path = writeArchive(t, dir, `[{"conversation_id": "conv-1", "title": "New title", "mapping": {"a": {}, "b": {}}}]`)

	result, err := imp.ImportFile(path, false)
	if err != nil {
		t.Fatalf("ImportFile() after change error = %v", err)
	}
	if result.Skipped {
		t.Error("Expected changed file to import")
	}

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 conversation after refresh, got %d", count)
	}

	var title string
	var messageCount int
	err = database.QueryRow(
		"SELECT title, message_count FROM conversations WHERE conversation_id = 'conv-1'",
	).Scan(&title, &messageCount)
	if err != nil {
		t.Fatal(err)
	}
	if title != "New title" || messageCount != 2 {
		t.Errorf("Expected refreshed row, got %q with %d messages", title, messageCount)
	}
}

func TestImportFile_ParseError(t *testing.T) {
	imp, database := newTestImporter(t)
	path := writeArchive(t, t.TempDir(), `{"conversations": 42}`)

	_, err := imp.ImportFile(path, false)
	if err == nil {
		t.Fatal("Expected error for malformed archive")
	}

	var parseErr *chatarchive.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected ParseError, got %T: %v", err, err)
	}

	// Nothing recorded for the failed file
	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected empty import log after failure, got %d entries", count)
	}
}

func TestImportDirectory(t *testing.T) {
	imp, database := newTestImporter(t)
	root := t.TempDir()

	dirA := filepath.Join(root, "export-a")
	dirB := filepath.Join(root, "export-b")
	dirBad := filepath.Join(root, "export-bad")
	for _, d := range []string{dirA, dirB, dirBad} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	writeArchive(t, dirA, sampleArchive)
	writeArchive(t, dirB, `[{"conversation_id": "conv-9", "title": "Solo", "mapping": {"a": {}}}]`)
	writeArchive(t, dirBad, `not json at all`)

	// A file that isn't a conversations archive is ignored
	if err := os.WriteFile(filepath.Join(dirA, "user.json"), []byte(`{"email": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := imp.ImportDirectory(root, false, nil)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}

	// The malformed archive is warned about and skipped
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	total := 0
	for _, r := range results {
		total += r.Imported
	}
	if total != 4 {
		t.Errorf("Expected 4 conversations imported, got %d", total)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("Expected 4 conversations in database, got %d", count)
	}
}

func TestImportPath(t *testing.T) {
	imp, _ := newTestImporter(t)
	dir := t.TempDir()
	path := writeArchive(t, dir, sampleArchive)

	t.Run("File", func(t *testing.T) {
		results, err := imp.ImportPath(path, false, nil)
		if err != nil {
			t.Fatalf("ImportPath() error = %v", err)
		}
		if len(results) != 1 || results[0].Imported != 3 {
			t.Errorf("Unexpected results: %+v", results)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		results, err := imp.ImportPath(dir, true, nil)
		if err != nil {
			t.Fatalf("ImportPath() error = %v", err)
		}
		if len(results) != 1 {
			t.Errorf("Expected 1 result for directory, got %d", len(results))
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		if _, err := imp.ImportPath(filepath.Join(dir, "nope"), false, nil); err == nil {
			t.Error("Expected error for missing path")
		}
	})
}
