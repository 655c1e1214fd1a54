package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driftlabs/drift/internal/message"
)

// RetentionDays is how long transcripts are kept before cleanup.
const RetentionDays = 30

// Store manages transcript file storage.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// NewStore creates a transcript store under ~/.drift/sessions and runs
// retention cleanup in the background.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(homeDir, ".drift", "sessions"))
}

// NewStoreAt creates a transcript store rooted at dir.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	store := &Store{baseDir: dir}

	go store.Cleanup()

	return store, nil
}

// Save writes a conversation and its messages to disk.
func (s *Store) Save(conv message.Conversation, msgs []message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == "" {
		return fmt.Errorf("conversation missing id")
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}

	transcript := &Transcript{
		Metadata: Metadata{
			ID:           conv.ID,
			Title:        conv.Title,
			ModelID:      conv.ModelID,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    time.Now(),
			MessageCount: len(msgs),
		},
		Messages: msgs,
	}

	return s.writeLocked(transcript)
}

// UpdateMessage upserts a single message into its conversation's transcript,
// creating the transcript if this is the conversation's first persisted
// message. The generation engine persists terminal content through it before
// emitting the terminal event.
func (s *Store) UpdateMessage(msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message missing id")
	}
	if msg.ConversationID == "" {
		return fmt.Errorf("message %s missing conversation id", msg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, err := s.loadWithoutLock(msg.ConversationID)
	if err != nil {
		transcript = &Transcript{
			Metadata: Metadata{ID: msg.ConversationID, CreatedAt: time.Now()},
		}
	}

	replaced := false
	for i := range transcript.Messages {
		if transcript.Messages[i].ID == msg.ID {
			transcript.Messages[i] = *msg.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		transcript.Messages = append(transcript.Messages, *msg.Clone())
		sort.SliceStable(transcript.Messages, func(i, j int) bool {
			return transcript.Messages[i].CreatedAt.Before(transcript.Messages[j].CreatedAt)
		})
	}

	transcript.Metadata.UpdatedAt = time.Now()
	transcript.Metadata.MessageCount = len(transcript.Messages)

	return s.writeLocked(transcript)
}

// writeLocked marshals and writes a transcript; caller holds the lock.
func (s *Store) writeLocked(transcript *Transcript) error {
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	filePath := filepath.Join(s.baseDir, transcript.Metadata.ID+".json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	return nil
}

// Load reads a transcript from disk by conversation id.
func (s *Store) Load(id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadWithoutLock(id)
}

// List returns all transcript metadata sorted by update time, newest first.
func (s *Store) List() ([]*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Metadata{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	metas := make([]*Metadata, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		transcript, err := s.loadWithoutLock(id)
		if err != nil {
			continue // Skip invalid transcript files
		}
		meta := transcript.Metadata
		metas = append(metas, &meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// GetLatest returns the most recently updated transcript.
func (s *Store) GetLatest() (*Transcript, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("no sessions found")
	}
	return s.Load(metas[0].ID)
}

// Delete removes a transcript file.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := filepath.Join(s.baseDir, id+".json")
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// Cleanup removes transcripts older than RetentionDays.
func (s *Store) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sessions directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -RetentionDays)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		transcript, err := s.loadWithoutLock(id)
		if err != nil {
			continue
		}

		if transcript.Metadata.UpdatedAt.Before(cutoff) {
			_ = os.Remove(filepath.Join(s.baseDir, entry.Name()))
		}
	}

	return nil
}

// loadWithoutLock loads a transcript; caller must hold the lock.
func (s *Store) loadWithoutLock(id string) (*Transcript, error) {
	filePath := filepath.Join(s.baseDir, id+".json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file: %w", err)
	}

	return &transcript, nil
}
