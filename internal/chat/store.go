package chat

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/driftlabs/drift/internal/message"
)

// position locates a message inside the per-conversation arrays.
type position struct {
	conversationID string
	index          int
}

// Store is the display-side message index. Messages live in per-conversation
// arrays kept sorted by CreatedAt, with an id index for O(1) lookup. All
// mutation goes through a single mutex; the render path only ever reads
// copies.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*message.Conversation
	messages      map[string][]*message.Message
	index         map[string]position
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*message.Conversation),
		messages:      make(map[string][]*message.Message),
		index:         make(map[string]position),
	}
}

// AddConversation registers a conversation. Re-adding an existing id
// replaces its metadata but keeps its messages.
func (s *Store) AddConversation(conv *message.Conversation) {
	if conv == nil || conv.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *conv
	s.conversations[conv.ID] = &cp
	if _, ok := s.messages[conv.ID]; !ok {
		s.messages[conv.ID] = nil
	}
}

// Conversation returns a copy of the conversation metadata.
func (s *Store) Conversation(id string) (message.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return message.Conversation{}, false
	}
	return *conv, true
}

// Conversations returns all conversations, most recently updated first.
func (s *Store) Conversations() []message.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]message.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetConversationModel records the model the conversation last used.
func (s *Store) SetConversationModel(conversationID, modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[conversationID]; ok {
		conv.ModelID = modelID
		conv.UpdatedAt = time.Now()
	}
}

// SetTitle updates the conversation title.
func (s *Store) SetTitle(conversationID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[conversationID]; ok {
		conv.Title = title
		conv.UpdatedAt = time.Now()
	}
}

// Ingest loads messages into a conversation. With replace it discards the
// conversation's current messages first; otherwise incoming messages merge
// in, with incoming copies winning on id collision. The array is re-sorted
// and the index rebuilt once at the end.
func (s *Store) Ingest(conversationID string, msgs []*message.Message, replace bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if replace {
		for _, m := range s.messages[conversationID] {
			delete(s.index, m.ID)
		}
		s.messages[conversationID] = nil
	}

	arr := s.messages[conversationID]
	for _, m := range msgs {
		if m == nil || m.ID == "" {
			continue
		}
		cp := m.Clone()
		cp.ConversationID = conversationID
		if pos, ok := s.index[m.ID]; ok && pos.conversationID == conversationID {
			arr[pos.index] = cp
			continue
		}
		arr = append(arr, cp)
	}

	sort.SliceStable(arr, func(i, j int) bool {
		return arr[i].CreatedAt.Before(arr[j].CreatedAt)
	})
	s.messages[conversationID] = arr
	s.rebuildIndex(conversationID)
	s.touchConversation(conversationID)
}

// AddMessage inserts a message into its conversation. Appending in timestamp
// order is O(1); an out-of-order arrival binary-searches its slot and
// rebuilds the conversation's index entries.
func (s *Store) AddMessage(msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message missing id")
	}
	if msg.ConversationID == "" {
		return fmt.Errorf("message %s missing conversation id", msg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(msg)
}

// addLocked inserts a message; caller holds the mutex.
func (s *Store) addLocked(msg *message.Message) error {
	if _, ok := s.index[msg.ID]; ok {
		return fmt.Errorf("message %s already present", msg.ID)
	}

	cp := msg.Clone()
	arr := s.messages[cp.ConversationID]

	if n := len(arr); n == 0 || !cp.CreatedAt.Before(arr[n-1].CreatedAt) {
		s.messages[cp.ConversationID] = append(arr, cp)
		s.index[cp.ID] = position{conversationID: cp.ConversationID, index: n}
		s.touchConversation(cp.ConversationID)
		return nil
	}

	at := sort.Search(len(arr), func(i int) bool {
		return arr[i].CreatedAt.After(cp.CreatedAt)
	})
	arr = append(arr, nil)
	copy(arr[at+1:], arr[at:])
	arr[at] = cp
	s.messages[cp.ConversationID] = arr
	s.rebuildIndex(cp.ConversationID)
	s.touchConversation(cp.ConversationID)
	return nil
}

// UpdateMessage replaces the stored copy of the message, inserting it if the
// id is new. This is the persistence entry point for streamed generations,
// whose messages first reach the store at their terminal event.
func (s *Store) UpdateMessage(msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message missing id")
	}
	if msg.ConversationID == "" {
		return fmt.Errorf("message %s missing conversation id", msg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[msg.ID]
	if !ok {
		return s.addLocked(msg)
	}

	cp := msg.Clone()
	cp.ConversationID = pos.conversationID
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	s.messages[pos.conversationID][pos.index] = cp
	s.touchConversation(pos.conversationID)
	return nil
}

// RemoveMessage deletes a message and rebuilds its conversation's index.
func (s *Store) RemoveMessage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false
	}
	arr := s.messages[pos.conversationID]
	arr = append(arr[:pos.index], arr[pos.index+1:]...)
	s.messages[pos.conversationID] = arr
	delete(s.index, id)
	s.rebuildIndex(pos.conversationID)
	s.touchConversation(pos.conversationID)
	return true
}

// GetMessage returns a copy of the message by id.
func (s *Store) GetMessage(id string) (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.messages[pos.conversationID][pos.index].Clone(), true
}

// Messages returns copies of a conversation's messages in CreatedAt order.
func (s *Store) Messages(conversationID string) []message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr := s.messages[conversationID]
	out := make([]message.Message, 0, len(arr))
	for _, m := range arr {
		out = append(out, *m.Clone())
	}
	return out
}

// Len returns the number of messages in a conversation.
func (s *Store) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[conversationID])
}

// AppendChunk applies a coalesced stream increment to a message in place.
// Text chunks extend the trailing text part; reasoning chunks extend the
// Reasoning field. Unknown ids are ignored, which covers chunks that arrive
// after the message was removed.
func (s *Store) AppendChunk(messageID string, kind ChunkKind, text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[messageID]
	if !ok {
		return
	}
	msg := s.messages[pos.conversationID][pos.index]
	switch kind {
	case ChunkReasoning:
		msg.Reasoning += text
	default:
		msg.AppendText(text)
	}
	msg.UpdatedAt = time.Now()
}

// rebuildIndex recomputes index entries for one conversation. Caller holds
// the mutex.
func (s *Store) rebuildIndex(conversationID string) {
	for i, m := range s.messages[conversationID] {
		s.index[m.ID] = position{conversationID: conversationID, index: i}
	}
}

// touchConversation derives the conversation's UpdatedAt from its latest
// message. Caller holds the mutex.
func (s *Store) touchConversation(conversationID string) {
	conv, ok := s.conversations[conversationID]
	if !ok {
		return
	}
	arr := s.messages[conversationID]
	if len(arr) == 0 {
		return
	}
	last := arr[len(arr)-1]
	at := last.UpdatedAt
	if at.IsZero() {
		at = last.CreatedAt
	}
	if at.After(conv.UpdatedAt) {
		conv.UpdatedAt = at
	}
}
