package models

import (
	"testing"
	"time"
)

func TestConversationValidate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		conv    Conversation
		wantErr bool
	}{
		{
			name: "valid conversation",
			conv: Conversation{
				ConversationID: "abc-123",
				Title:          "Trip planning",
				CreateTime:     &now,
				ModelSlug:      "gpt-4",
				MessageCount:   12,
				SourceFile:     "/exports/conversations.json",
			},
			wantErr: false,
		},
		{
			name: "missing optional fields is valid",
			conv: Conversation{
				SourceFile: "/exports/conversations.json",
			},
			wantErr: false,
		},
		{
			name: "negative message count",
			conv: Conversation{
				MessageCount: -1,
				SourceFile:   "/exports/conversations.json",
			},
			wantErr: true,
		},
		{
			name:    "missing source file",
			conv:    Conversation{MessageCount: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conv.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
