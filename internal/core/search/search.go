package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/gptrider/internal/core/db"
)

// Result represents a single search result
type Result struct {
	ConversationID string
	Title          string
	Snippet        string
	CreateTime     string
	ModelSlug      string
	MessageCount   int
}

// Default sort order for search results (most recent first)
const defaultOrderBy = "c.create_time DESC"

const defaultLimit = 1000

// Search performs a full-text search over conversation titles.
// Results are ordered by conversation time (most recent first).
func Search(database *db.DB, query string, limit int) ([]Result, error) {
	return SearchFiltered(database, Filters{Query: query}, limit)
}

// SearchFiltered performs a search constrained by parsed filters. The query
// may be empty when at least one filter is set, which turns the search into
// a filtered listing.
func SearchFiltered(database *db.DB, f Filters, limit int) ([]Result, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Query == "" && f.Model == "" && f.After == nil && f.Before == nil {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	conds, condArgs := filterConditions(f)

	var rows *sql.Rows
	var err error

	switch {
	case f.Query == "":
		// Filters only: plain listing without a match clause
		query := fmt.Sprintf(`
			SELECT
				COALESCE(c.conversation_id, ''),
				COALESCE(c.title, ''),
				COALESCE(c.title, ''),
				COALESCE(c.create_time, ''),
				COALESCE(c.model_slug, ''),
				c.message_count
			FROM conversations c
			WHERE 1=1%s
			ORDER BY %s
			LIMIT ?
		`, conds, defaultOrderBy)
		rows, err = database.Query(query, append(condArgs, limit)...)

	case strings.ContainsAny(f.Query, "-_@#$%&"):
		// Special characters trip up FTS5 query syntax, so use LIKE for
		// exact substring matching
		query := fmt.Sprintf(`
			SELECT
				COALESCE(c.conversation_id, ''),
				COALESCE(c.title, ''),
				COALESCE(c.title, ''),
				COALESCE(c.create_time, ''),
				COALESCE(c.model_slug, ''),
				c.message_count
			FROM conversations c
			WHERE c.title LIKE '%%' || ? || '%%'%s
			ORDER BY %s
			LIMIT ?
		`, conds, defaultOrderBy)
		args := append([]interface{}{f.Query}, condArgs...)
		rows, err = database.Query(query, append(args, limit)...)

	default:
		// Use FTS5 with snippet for regular queries
		query := fmt.Sprintf(`
			SELECT
				COALESCE(c.conversation_id, ''),
				COALESCE(c.title, ''),
				snippet(conversations_fts, -1, '', '', '...', 64) as snippet,
				COALESCE(c.create_time, ''),
				COALESCE(c.model_slug, ''),
				c.message_count
			FROM conversations_fts
			JOIN conversations c ON conversations_fts.rowid = c.id
			WHERE conversations_fts MATCH ?%s
			ORDER BY %s
			LIMIT ?
		`, conds, defaultOrderBy)
		args := append([]interface{}{f.Query}, condArgs...)
		rows, err = database.Query(query, append(args, limit)...)
	}
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConversationID,
			&r.Title,
			&r.Snippet,
			&r.CreateTime,
			&r.ModelSlug,
			&r.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// filterConditions renders filters as extra WHERE clauses. Stored timestamps
// are RFC3339 UTC, so string comparison orders chronologically.
func filterConditions(f Filters) (string, []interface{}) {
	var conds strings.Builder
	var args []interface{}

	if f.Model != "" {
		conds.WriteString(" AND c.model_slug = ?")
		args = append(args, f.Model)
	}
	if f.After != nil {
		conds.WriteString(" AND c.create_time >= ?")
		args = append(args, f.After.UTC().Format(time.RFC3339Nano))
	}
	if f.Before != nil {
		conds.WriteString(" AND c.create_time < ?")
		args = append(args, f.Before.UTC().Format(time.RFC3339Nano))
	}

	return conds.String(), args
}
