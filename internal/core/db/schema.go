package db

func (db *DB) initSchema() error {
	schema := `
	-- Conversations table: one row per conversation in the archive
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT UNIQUE,
		title TEXT,
		create_time DATETIME,
		model_slug TEXT,
		has_voice BOOLEAN NOT NULL DEFAULT 0,
		message_count INTEGER NOT NULL DEFAULT 0,
		source_file TEXT,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_create_time ON conversations(create_time);
	CREATE INDEX IF NOT EXISTS idx_conversations_model_slug ON conversations(model_slug);
	CREATE INDEX IF NOT EXISTS idx_conversations_source_file ON conversations(source_file);

	-- Import log table
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		file_size INTEGER,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		conversations_imported INTEGER,
		status TEXT CHECK(status IN ('success', 'partial', 'failed')),
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_file_hash ON import_log(file_hash);

	-- FTS5 table for full-text search over titles
	-- Natural language search with porter stemming
	CREATE VIRTUAL TABLE IF NOT EXISTS conversations_fts USING fts5(
		title,
		content=conversations,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	-- Triggers to keep FTS in sync. External-content FTS5 tables need the
	-- special 'delete' command to drop old index entries.
	CREATE TRIGGER IF NOT EXISTS conversations_ai AFTER INSERT ON conversations BEGIN
		INSERT INTO conversations_fts(rowid, title) VALUES (new.id, new.title);
	END;

	CREATE TRIGGER IF NOT EXISTS conversations_ad AFTER DELETE ON conversations BEGIN
		INSERT INTO conversations_fts(conversations_fts, rowid, title) VALUES ('delete', old.id, old.title);
	END;

	CREATE TRIGGER IF NOT EXISTS conversations_au AFTER UPDATE ON conversations BEGIN
		INSERT INTO conversations_fts(conversations_fts, rowid, title) VALUES ('delete', old.id, old.title);
		INSERT INTO conversations_fts(rowid, title) VALUES (new.id, new.title);
	END;
	`

	_, err := db.conn.Exec(schema)
	return err
}
