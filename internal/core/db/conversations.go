package db

import (
	"database/sql"
	"time"

	"github.com/neilberkman/gptrider/internal/core/models"
	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

// timestampFormats are the layouts we accept when reading stored timestamps.
// Values written by the importer are RFC3339Nano; CURRENT_TIMESTAMP defaults
// use the plain SQLite format.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp string
func parseTimestamp(s string) (time.Time, bool) {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AllConversations returns every conversation in archive order, in the
// normalized form the analytics functions consume
func (db *DB) AllConversations() ([]chatarchive.Conversation, error) {
	rows, err := db.Query(`
		SELECT
			COALESCE(conversation_id, ''),
			COALESCE(title, ''),
			create_time,
			COALESCE(model_slug, ''),
			has_voice,
			message_count
		FROM conversations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []chatarchive.Conversation
	for rows.Next() {
		var c chatarchive.Conversation
		var createTime sql.NullString
		err := rows.Scan(
			&c.ConversationID,
			&c.Title,
			&createTime,
			&c.ModelSlug,
			&c.HasVoice,
			&c.MessageCount,
		)
		if err != nil {
			return nil, err
		}
		if createTime.Valid {
			if t, ok := parseTimestamp(createTime.String); ok {
				t = t.UTC()
				c.CreateTime = &t
			}
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// ListConversations returns conversations for display, newest first.
// An empty model matches all models; voiceOnly restricts to voice
// conversations; limit <= 0 means no limit.
func (db *DB) ListConversations(model string, voiceOnly bool, limit int) ([]models.Conversation, error) {
	query := `
		SELECT
			id,
			COALESCE(conversation_id, ''),
			CASE
				WHEN title IS NULL OR TRIM(title) = '' THEN '(untitled)'
				ELSE title
			END as title,
			create_time,
			COALESCE(model_slug, ''),
			has_voice,
			message_count,
			COALESCE(source_file, ''),
			imported_at
		FROM conversations
		WHERE 1=1`

	args := []interface{}{}
	if model != "" {
		query += " AND model_slug = ?"
		args = append(args, model)
	}
	if voiceOnly {
		query += " AND has_voice = 1"
	}

	// NULL create_time sorts last under DESC in SQLite
	query += " ORDER BY create_time DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var c models.Conversation
		var createTime, importedAt sql.NullString
		err := rows.Scan(
			&c.ID,
			&c.ConversationID,
			&c.Title,
			&createTime,
			&c.ModelSlug,
			&c.HasVoice,
			&c.MessageCount,
			&c.SourceFile,
			&importedAt,
		)
		if err != nil {
			return nil, err
		}
		if createTime.Valid {
			if t, ok := parseTimestamp(createTime.String); ok {
				t = t.UTC()
				c.CreateTime = &t
			}
		}
		if importedAt.Valid {
			if t, ok := parseTimestamp(importedAt.String); ok {
				c.ImportedAt = t.UTC()
			}
		}
		conversations = append(conversations, c)
	}

	return conversations, rows.Err()
}

// DeleteBySourceFile removes all conversations imported from the given file
// along with its import log entries, so the file can be imported fresh
func (db *DB) DeleteBySourceFile(path string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM conversations WHERE source_file = ?`, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM import_log WHERE file_path = ?`, path); err != nil {
		return err
	}

	return tx.Commit()
}
