package models

import (
	"errors"
	"time"
)

// Conversation represents a conversation row as stored in the database.
// ConversationID, Title, ModelSlug, and CreateTime are nullable in the
// schema; their zero values stand in for NULL here.
type Conversation struct {
	ID             int64
	ConversationID string
	Title          string
	CreateTime     *time.Time
	ModelSlug      string
	HasVoice       bool
	MessageCount   int
	SourceFile     string
	ImportedAt     time.Time
}

// Validate checks the invariants required before insert. Missing ids,
// titles, models, and timestamps are all legal; archives routinely omit
// them.
func (c *Conversation) Validate() error {
	if c.MessageCount < 0 {
		return errors.New("message count cannot be negative")
	}
	if c.SourceFile == "" {
		return errors.New("source file is required")
	}
	return nil
}
