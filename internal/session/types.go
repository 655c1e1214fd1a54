// Package session persists conversation transcripts as JSON files under
// ~/.drift/sessions, one file per conversation.
package session

import (
	"time"

	"github.com/driftlabs/drift/internal/message"
)

// Metadata summarizes a stored transcript without its messages.
type Metadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ModelID      string    `json:"modelId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

// Transcript is a complete stored conversation.
type Transcript struct {
	Metadata Metadata          `json:"metadata"`
	Messages []message.Message `json:"messages"`
}

// Conversation converts the stored metadata back into a conversation, for
// resuming a transcript into the live store.
func (t *Transcript) Conversation() message.Conversation {
	return message.Conversation{
		ID:        t.Metadata.ID,
		Title:     t.Metadata.Title,
		ModelID:   t.Metadata.ModelID,
		CreatedAt: t.Metadata.CreatedAt,
		UpdatedAt: t.Metadata.UpdatedAt,
	}
}
