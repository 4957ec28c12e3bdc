package db

import (
	"database/sql"
	"time"
)

// Stats represents database statistics
type Stats struct {
	TotalConversations   int
	TotalMessages        int
	VoiceConversations   int
	OldestConversation   time.Time
	NewestConversation   time.Time
	MostActiveModel      string
	MostActiveModelCount int
}

// GetStats returns comprehensive database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	// Total conversations
	err := db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations)
	if err != nil {
		return nil, err
	}

	// Total messages across all conversations
	err = db.QueryRow("SELECT COALESCE(SUM(message_count), 0) FROM conversations").Scan(&stats.TotalMessages)
	if err != nil {
		return nil, err
	}

	// Voice conversations
	err = db.QueryRow("SELECT COUNT(*) FROM conversations WHERE has_voice = 1").Scan(&stats.VoiceConversations)
	if err != nil {
		return nil, err
	}

	// Date range (only if we have conversations)
	if stats.TotalConversations > 0 {
		var oldest, newest sql.NullString
		err = db.QueryRow(`
			SELECT MIN(create_time), MAX(create_time)
			FROM conversations
			WHERE create_time IS NOT NULL
		`).Scan(&oldest, &newest)
		if err != nil {
			return nil, err
		}

		if oldest.Valid {
			if t, ok := parseTimestamp(oldest.String); ok {
				stats.OldestConversation = t
			}
		}

		if newest.Valid {
			if t, ok := parseTimestamp(newest.String); ok {
				stats.NewestConversation = t
			}
		}

		// Most active model
		var mostActiveModel sql.NullString
		err = db.QueryRow(`
			SELECT model_slug, COUNT(*) as count
			FROM conversations
			WHERE model_slug IS NOT NULL
			GROUP BY model_slug
			ORDER BY count DESC
			LIMIT 1
		`).Scan(&mostActiveModel, &stats.MostActiveModelCount)

		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}

		if mostActiveModel.Valid {
			stats.MostActiveModel = mostActiveModel.String
		}
	}

	return stats, nil
}
