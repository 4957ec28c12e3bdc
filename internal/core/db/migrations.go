package db

import (
	"fmt"
)

// runMigrations applies database migrations for existing databases
func (db *DB) runMigrations() error {
	// Migration 1: Add has_voice column to conversations
	if err := db.migration001AddHasVoice(); err != nil {
		return fmt.Errorf("migration 001: %w", err)
	}

	// Migration 2: Add source_file column to conversations
	if err := db.migration002AddSourceFile(); err != nil {
		return fmt.Errorf("migration 002: %w", err)
	}

	return nil
}

// migration001AddHasVoice adds the has_voice column for databases created
// before voice conversations were tracked
func (db *DB) migration001AddHasVoice() error {
	var hasColumn bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('conversations')
		WHERE name='has_voice'
	`).Scan(&hasColumn)
	if err != nil {
		return err
	}

	if !hasColumn {
		_, err = db.conn.Exec(`ALTER TABLE conversations ADD COLUMN has_voice BOOLEAN NOT NULL DEFAULT 0;`)
		if err != nil {
			return fmt.Errorf("add has_voice column: %w", err)
		}
	}

	return nil
}

// migration002AddSourceFile adds the source_file column so re-imports can
// replace rows from a specific archive file
func (db *DB) migration002AddSourceFile() error {
	var hasColumn bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('conversations')
		WHERE name='source_file'
	`).Scan(&hasColumn)
	if err != nil {
		return err
	}

	if !hasColumn {
		_, err = db.conn.Exec(`ALTER TABLE conversations ADD COLUMN source_file TEXT;`)
		if err != nil {
			return fmt.Errorf("add source_file column: %w", err)
		}

		_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_conversations_source_file ON conversations(source_file);`)
		if err != nil {
			return fmt.Errorf("create source_file index: %w", err)
		}
	}

	return nil
}
