// Package message defines the canonical conversation and message types used
// across the codebase. All packages import from here to avoid circular
// dependencies.
package message

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType identifies the variant of a ContentPart.
type PartType string

const (
	PartText     PartType = "text"
	PartImage    PartType = "image"
	PartCitation PartType = "citation"
	PartToolCall PartType = "tool-call"
	PartTempFile PartType = "temporary-file-reference"
)

// ContentPart is a tagged union over the renderable content kinds. Exactly
// the field matching Type is populated.
type ContentPart struct {
	Type PartType `json:"type"`

	Text     string       `json:"text,omitempty"`
	Image    *ImageRef    `json:"image,omitempty"`
	Citation *Citation    `json:"citation,omitempty"`
	ToolCall *ToolCall    `json:"toolCall,omitempty"`
	TempFile *TempFileRef `json:"tempFile,omitempty"`
}

// ImageRef references image content, either inline base64 data or a path.
type ImageRef struct {
	MediaType string `json:"mediaType,omitempty"`
	Data      string `json:"data,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Citation points at a source span backing a generated claim.
type Citation struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Quote  string `json:"quote,omitempty"`
}

// ToolCall carries a model-issued tool invocation.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// TempFileRef references a file attached to the conversation but not yet
// promoted to project storage.
type TempFileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int    `json:"size,omitempty"`
}

// hasPayload reports whether the part carries non-empty content.
func (p ContentPart) hasPayload() bool {
	switch p.Type {
	case PartText:
		return p.Text != ""
	case PartImage:
		return p.Image != nil && (p.Image.Data != "" || p.Image.Path != "")
	case PartCitation:
		return p.Citation != nil && p.Citation.Source != ""
	case PartToolCall:
		return p.ToolCall != nil && p.ToolCall.Name != ""
	case PartTempFile:
		return p.TempFile != nil && p.TempFile.Path != ""
	}
	return false
}

// Message represents a single chat message. Content ordering is meaningful
// and is mutated only by appending or replacing the trailing part while a
// generation streams into it.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Role           Role          `json:"role"`
	Content        []ContentPart `json:"content"`
	Reasoning      string        `json:"reasoning,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// New creates a message with a generated id and creation timestamps.
func New(conversationID string, role Role, parts ...ContentPart) *Message {
	now := time.Now()
	return &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        parts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewUser creates a user message holding a single text part.
func NewUser(conversationID, text string) *Message {
	return New(conversationID, RoleUser, TextPart(text))
}

// NewAssistant creates an empty assistant message to stream into.
func NewAssistant(conversationID string) *Message {
	return New(conversationID, RoleAssistant)
}

// TextPart wraps a string as a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// Meaningful reports whether at least one part carries non-empty payload.
func (m *Message) Meaningful() bool {
	for _, p := range m.Content {
		if p.hasPayload() {
			return true
		}
	}
	return false
}

// Text returns the concatenation of all text parts.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// AppendText appends text to the trailing text part, creating one if the
// message is empty or ends in a non-text part.
func (m *Message) AppendText(text string) {
	if text == "" {
		return
	}
	if n := len(m.Content); n > 0 && m.Content[n-1].Type == PartText {
		m.Content[n-1].Text += text
		return
	}
	m.Content = append(m.Content, TextPart(text))
}

// SetText replaces the message content with a single text part.
func (m *Message) SetText(text string) {
	m.Content = []ContentPart{TextPart(text)}
}

// Clone returns a deep copy of the message, including part payloads.
func (m *Message) Clone() *Message {
	cp := *m
	cp.Content = make([]ContentPart, len(m.Content))
	for i, p := range m.Content {
		if p.Image != nil {
			img := *p.Image
			p.Image = &img
		}
		if p.Citation != nil {
			c := *p.Citation
			p.Citation = &c
		}
		if p.ToolCall != nil {
			tc := *p.ToolCall
			p.ToolCall = &tc
		}
		if p.TempFile != nil {
			tf := *p.TempFile
			p.TempFile = &tf
		}
		cp.Content[i] = p
	}
	return &cp
}

// Preview returns a single-line, truncated, rune-safe preview of the message
// text.
func (m *Message) Preview(maxLen int) string {
	text := strings.Join(strings.Fields(m.Text()), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Conversation holds metadata for a message thread. Messages themselves
// live in the display-side store; UpdatedAt is derived from the latest
// message by the caller after structural changes.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ModelID   string    `json:"modelId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation creates a conversation with a generated id.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Usage contains token usage information for a completed generation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
