package db

import (
	"os"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	// Use temp file for test DB
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	_ = tmpfile.Close()

	database, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func TestNew(t *testing.T) {
	database := newTestDB(t)

	// Verify schema initialized
	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}

	// Should have: conversations, import_log, conversations_fts (plus FTS shadow tables)
	if count < 3 {
		t.Errorf("Expected at least 3 tables, got %d", count)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	// Verify WAL mode is enabled
	var journalMode string
	err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_ForeignKeys(t *testing.T) {
	database := newTestDB(t)

	// Verify foreign keys are enabled
	var fkEnabled int
	err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	if err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}

	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func TestSchemaCreation(t *testing.T) {
	database := newTestDB(t)

	// Test that conversations table exists with correct columns
	var columnCount int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info('conversations')").Scan(&columnCount)
	if err != nil {
		t.Fatalf("Failed to query conversations columns: %v", err)
	}

	// conversations should have: id, conversation_id, title, create_time,
	// model_slug, has_voice, message_count, source_file, imported_at
	if columnCount < 9 {
		t.Errorf("Expected at least 9 columns in conversations table, got %d", columnCount)
	}

	// Test that import_log table exists with correct columns
	err = database.conn.QueryRow("SELECT COUNT(*) FROM pragma_table_info('import_log')").Scan(&columnCount)
	if err != nil {
		t.Fatalf("Failed to query import_log columns: %v", err)
	}

	// import_log should have: id, file_path, file_hash, file_size, imported_at,
	// conversations_imported, status, error_message
	if columnCount < 8 {
		t.Errorf("Expected at least 8 columns in import_log table, got %d", columnCount)
	}
}

func TestFTS5Tables(t *testing.T) {
	database := newTestDB(t)

	// Verify conversations_fts virtual table exists
	var ftsExists int
	err := database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='conversations_fts'
	`).Scan(&ftsExists)
	if err != nil {
		t.Fatalf("Failed to check FTS table: %v", err)
	}

	if ftsExists != 1 {
		t.Errorf("Expected conversations_fts table to exist")
	}
}

func TestIndexes(t *testing.T) {
	database := newTestDB(t)

	// Verify indexes exist
	var indexCount int
	err := database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND tbl_name='conversations'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to count conversation indexes: %v", err)
	}

	// Should have indexes on: create_time, model_slug, source_file
	// (plus the autoindex backing the conversation_id UNIQUE constraint)
	if indexCount < 3 {
		t.Errorf("Expected at least 3 indexes on conversations, got %d", indexCount)
	}

	err = database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND tbl_name='import_log'
	`).Scan(&indexCount)
	if err != nil {
		t.Fatalf("Failed to count import_log indexes: %v", err)
	}

	// Should have an index on file_hash
	if indexCount < 1 {
		t.Errorf("Expected at least 1 index on import_log, got %d", indexCount)
	}
}

func TestBasicInsert(t *testing.T) {
	database := newTestDB(t)

	// Test inserting a conversation
	_, err := database.Exec(`
		INSERT INTO conversations (
			conversation_id, title, create_time, model_slug, has_voice, message_count
		) VALUES (?, ?, ?, ?, ?, ?)
	`, "conv-123", "Planning a garden", "2024-03-05T12:00:00Z", "gpt-4", 0, 4)

	if err != nil {
		t.Fatalf("Failed to insert conversation: %v", err)
	}

	// Verify FTS was populated via trigger
	var ftsCount int
	err = database.conn.QueryRow("SELECT COUNT(*) FROM conversations_fts").Scan(&ftsCount)
	if err != nil {
		t.Fatalf("Failed to query FTS: %v", err)
	}

	if ftsCount != 1 {
		t.Errorf("Expected 1 FTS entry, got %d", ftsCount)
	}
}

func TestUpsertByConversationID(t *testing.T) {
	database := newTestDB(t)

	upsert := `
		INSERT INTO conversations (conversation_id, title, model_slug, message_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			title = excluded.title,
			model_slug = excluded.model_slug,
			message_count = excluded.message_count
	`

	_, err := database.Exec(upsert, "conv-1", "First title", "gpt-4", 3)
	if err != nil {
		t.Fatalf("Failed first insert: %v", err)
	}

	_, err = database.Exec(upsert, "conv-1", "Updated title", "gpt-4o", 7)
	if err != nil {
		t.Fatalf("Failed upsert: %v", err)
	}

	var count int
	err = database.conn.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after upsert, got %d", count)
	}

	var title string
	var messageCount int
	err = database.conn.QueryRow(
		"SELECT title, message_count FROM conversations WHERE conversation_id = ?", "conv-1",
	).Scan(&title, &messageCount)
	if err != nil {
		t.Fatalf("Failed to read row: %v", err)
	}
	if title != "Updated title" {
		t.Errorf("Expected updated title, got %q", title)
	}
	if messageCount != 7 {
		t.Errorf("Expected message_count 7, got %d", messageCount)
	}
}

func TestNullConversationIDsCoexist(t *testing.T) {
	database := newTestDB(t)

	// UNIQUE permits multiple NULLs, so records without an id never collide
	for i := 0; i < 2; i++ {
		_, err := database.Exec(`
			INSERT INTO conversations (conversation_id, title, message_count)
			VALUES (NULL, ?, ?)
		`, "Untracked", i)
		if err != nil {
			t.Fatalf("Failed to insert NULL-id row %d: %v", i, err)
		}
	}

	var count int
	err := database.conn.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows with NULL conversation_id, got %d", count)
	}
}

func TestAllConversations(t *testing.T) {
	database := newTestDB(t)

	inserts := []struct {
		conversationID interface{}
		title          interface{}
		createTime     interface{}
		modelSlug      interface{}
		hasVoice       int
		messageCount   int
	}{
		{"conv-1", "Planning a garden", "2024-03-05T12:00:00Z", "gpt-4", 0, 4},
		{nil, nil, nil, nil, 1, 0},
		{"conv-2", "Trip to Spain", "2024-04-01T08:30:00Z", nil, 0, 9},
	}
	for _, in := range inserts {
		_, err := database.Exec(`
			INSERT INTO conversations (conversation_id, title, create_time, model_slug, has_voice, message_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, in.conversationID, in.title, in.createTime, in.modelSlug, in.hasVoice, in.messageCount)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	conversations, err := database.AllConversations()
	if err != nil {
		t.Fatalf("AllConversations() error = %v", err)
	}

	if len(conversations) != 3 {
		t.Fatalf("Expected 3 conversations, got %d", len(conversations))
	}

	first := conversations[0]
	if first.ConversationID != "conv-1" || first.Title != "Planning a garden" {
		t.Errorf("Unexpected first row: %+v", first)
	}
	if first.CreateTime == nil {
		t.Fatal("Expected parsed create_time on first row")
	}
	if got := first.CreateTime.Format("2006-01-02"); got != "2024-03-05" {
		t.Errorf("Expected create_time 2024-03-05, got %s", got)
	}
	if first.MessageCount != 4 {
		t.Errorf("Expected message count 4, got %d", first.MessageCount)
	}

	second := conversations[1]
	if second.ConversationID != "" || second.Title != "" || second.ModelSlug != "" {
		t.Errorf("Expected empty strings for NULL columns, got %+v", second)
	}
	if second.CreateTime != nil {
		t.Errorf("Expected nil create_time for NULL column, got %v", second.CreateTime)
	}
	if !second.HasVoice {
		t.Error("Expected voice flag preserved on second row")
	}

	if conversations[2].ConversationID != "conv-2" {
		t.Errorf("Expected archive order by insert, got %+v", conversations[2])
	}
}

func TestListConversations(t *testing.T) {
	database := newTestDB(t)

	inserts := []struct {
		conversationID string
		title          interface{}
		createTime     interface{}
		modelSlug      string
		hasVoice       int
	}{
		{"conv-1", "Oldest chat", "2024-01-01T10:00:00Z", "gpt-4", 0},
		{"conv-2", "Middle chat", "2024-06-01T10:00:00Z", "gpt-4o", 1},
		{"conv-3", nil, "2024-12-01T10:00:00Z", "gpt-4", 0},
		{"conv-4", "Undated chat", nil, "gpt-4o", 0},
	}
	for _, in := range inserts {
		_, err := database.Exec(`
			INSERT INTO conversations (conversation_id, title, create_time, model_slug, has_voice)
			VALUES (?, ?, ?, ?, ?)
		`, in.conversationID, in.title, in.createTime, in.modelSlug, in.hasVoice)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	t.Run("NewestFirstWithUntitledFallback", func(t *testing.T) {
		conversations, err := database.ListConversations("", false, 0)
		if err != nil {
			t.Fatalf("ListConversations() error = %v", err)
		}
		if len(conversations) != 4 {
			t.Fatalf("Expected 4 conversations, got %d", len(conversations))
		}
		if conversations[0].ConversationID != "conv-3" {
			t.Errorf("Expected newest first, got %s", conversations[0].ConversationID)
		}
		if conversations[0].Title != "(untitled)" {
			t.Errorf("Expected (untitled) fallback, got %q", conversations[0].Title)
		}
		// NULL create_time sorts last
		if conversations[3].ConversationID != "conv-4" {
			t.Errorf("Expected undated conversation last, got %s", conversations[3].ConversationID)
		}
	})

	t.Run("ModelFilter", func(t *testing.T) {
		conversations, err := database.ListConversations("gpt-4o", false, 0)
		if err != nil {
			t.Fatalf("ListConversations() error = %v", err)
		}
		if len(conversations) != 2 {
			t.Fatalf("Expected 2 gpt-4o conversations, got %d", len(conversations))
		}
		for _, c := range conversations {
			if c.ModelSlug != "gpt-4o" {
				t.Errorf("Unexpected model %q in filtered list", c.ModelSlug)
			}
		}
	})

	t.Run("VoiceOnly", func(t *testing.T) {
		conversations, err := database.ListConversations("", true, 0)
		if err != nil {
			t.Fatalf("ListConversations() error = %v", err)
		}
		if len(conversations) != 1 || conversations[0].ConversationID != "conv-2" {
			t.Errorf("Expected only the voice conversation, got %+v", conversations)
		}
	})

	t.Run("Limit", func(t *testing.T) {
		conversations, err := database.ListConversations("", false, 2)
		if err != nil {
			t.Fatalf("ListConversations() error = %v", err)
		}
		if len(conversations) != 2 {
			t.Errorf("Expected 2 conversations with limit, got %d", len(conversations))
		}
	})
}

func TestDeleteBySourceFile(t *testing.T) {
	database := newTestDB(t)

	for i, src := range []string{"/a/conversations.json", "/a/conversations.json", "/b/conversations.json"} {
		_, err := database.Exec(`
			INSERT INTO conversations (conversation_id, title, source_file)
			VALUES (?, ?, ?)
		`, string(rune('a'+i)), "Chat", src)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}
	_, err := database.Exec(`
		INSERT INTO import_log (file_path, file_hash, conversations_imported, status)
		VALUES (?, ?, ?, 'success')
	`, "/a/conversations.json", "deadbeef", 2)
	if err != nil {
		t.Fatalf("Failed to insert import_log: %v", err)
	}

	if err := database.DeleteBySourceFile("/a/conversations.json"); err != nil {
		t.Fatalf("DeleteBySourceFile() error = %v", err)
	}

	var count int
	err = database.conn.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count conversations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining conversation, got %d", count)
	}

	err = database.conn.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count import_log: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected import_log cleared for file, got %d rows", count)
	}
}

func TestGetStats(t *testing.T) {
	database := newTestDB(t)

	t.Run("EmptyDatabase", func(t *testing.T) {
		stats, err := database.GetStats()
		if err != nil {
			t.Fatalf("GetStats() error = %v", err)
		}
		if stats.TotalConversations != 0 || stats.TotalMessages != 0 {
			t.Errorf("Expected zero stats for empty database, got %+v", stats)
		}
	})

	inserts := []struct {
		conversationID string
		createTime     interface{}
		modelSlug      interface{}
		hasVoice       int
		messageCount   int
	}{
		{"conv-1", "2023-01-02T10:00:00Z", "gpt-4", 0, 3},
		{"conv-2", "2024-06-01T10:00:00Z", "gpt-4", 1, 5},
		{"conv-3", nil, "gpt-4o", 0, 2},
	}
	for _, in := range inserts {
		_, err := database.Exec(`
			INSERT INTO conversations (conversation_id, create_time, model_slug, has_voice, message_count)
			VALUES (?, ?, ?, ?, ?)
		`, in.conversationID, in.createTime, in.modelSlug, in.hasVoice, in.messageCount)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	stats, err := database.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalConversations != 3 {
		t.Errorf("Expected 3 conversations, got %d", stats.TotalConversations)
	}
	if stats.TotalMessages != 10 {
		t.Errorf("Expected 10 total messages, got %d", stats.TotalMessages)
	}
	if stats.VoiceConversations != 1 {
		t.Errorf("Expected 1 voice conversation, got %d", stats.VoiceConversations)
	}
	if stats.OldestConversation.Year() != 2023 {
		t.Errorf("Expected oldest in 2023, got %v", stats.OldestConversation)
	}
	if stats.NewestConversation.Year() != 2024 {
		t.Errorf("Expected newest in 2024, got %v", stats.NewestConversation)
	}
	if stats.MostActiveModel != "gpt-4" || stats.MostActiveModelCount != 2 {
		t.Errorf("Expected gpt-4 x2 as most active, got %s x%d", stats.MostActiveModel, stats.MostActiveModelCount)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	database := newTestDB(t)

	// New() already ran migrations once; a second pass must be a no-op
	if err := database.runMigrations(); err != nil {
		t.Fatalf("runMigrations() second run error = %v", err)
	}
}
