package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/driftlabs/drift/internal/message"
)

func msgAt(conv, id string, at time.Time) *message.Message {
	return &message.Message{
		ID:             id,
		ConversationID: conv,
		Role:           message.RoleUser,
		Content:        []message.ContentPart{message.TextPart("m " + id)},
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func assertOrder(t *testing.T, s *Store, conv string, want []string) {
	t.Helper()
	msgs := s.Messages(conv)
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, msgs[i].ID)
		}
	}
	// Index must agree with array positions after every mutation mix.
	for _, id := range want {
		got, ok := s.GetMessage(id)
		if !ok {
			t.Errorf("index lost message %s", id)
			continue
		}
		if got.ID != id {
			t.Errorf("index returned wrong message for %s", id)
		}
	}
}

func TestAddMessageKeepsCreatedAtOrder(t *testing.T) {
	s := NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Append fast path
	if err := s.AddMessage(msgAt("conv", "m1", base)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage(msgAt("conv", "m3", base.Add(2*time.Minute))); err != nil {
		t.Fatal(err)
	}
	// Out-of-order arrival takes the binary-search path
	if err := s.AddMessage(msgAt("conv", "m2", base.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	assertOrder(t, s, "conv", []string{"m1", "m2", "m3"})
}

func TestAddMessageRejectsDuplicates(t *testing.T) {
	s := NewStore()
	at := time.Now()

	if err := s.AddMessage(msgAt("conv", "m1", at)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage(msgAt("conv", "m1", at)); err == nil {
		t.Error("duplicate id should be rejected")
	}
}

func TestUpdateMessageUpsertsAndStamps(t *testing.T) {
	s := NewStore()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Unknown id inserts.
	m := msgAt("conv", "m1", at)
	m.UpdatedAt = time.Time{}
	if err := s.UpdateMessage(m); err != nil {
		t.Fatal(err)
	}

	// Known id replaces content.
	updated := msgAt("conv", "m1", at)
	updated.SetText("edited")
	updated.UpdatedAt = time.Time{}
	if err := s.UpdateMessage(updated); err != nil {
		t.Fatal(err)
	}

	got, ok := s.GetMessage("m1")
	if !ok {
		t.Fatal("message missing after update")
	}
	if got.Text() != "edited" {
		t.Errorf("content not replaced: %q", got.Text())
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on update")
	}
}

func TestRemoveMessageRebuildsIndex(t *testing.T) {
	s := NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		if err := s.AddMessage(msgAt("conv", id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	if !s.RemoveMessage("m2") {
		t.Fatal("remove failed")
	}
	if s.RemoveMessage("m2") {
		t.Error("second remove should return false")
	}

	assertOrder(t, s, "conv", []string{"m0", "m1", "m3", "m4"})

	// Insert after removal still lands in the right slot.
	if err := s.AddMessage(msgAt("conv", "m2b", base.Add(90*time.Second))); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, s, "conv", []string{"m0", "m1", "m2b", "m3", "m4"})
}

func TestIngestReplaceAndMerge(t *testing.T) {
	s := NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Ingest("conv", []*message.Message{
		msgAt("conv", "m2", base.Add(time.Minute)),
		msgAt("conv", "m1", base),
	}, false)
	assertOrder(t, s, "conv", []string{"m1", "m2"})

	// Merge updates collisions and inserts new ids in order.
	edited := msgAt("conv", "m1", base)
	edited.SetText("revised")
	s.Ingest("conv", []*message.Message{
		edited,
		msgAt("conv", "m0", base.Add(-time.Minute)),
	}, false)
	assertOrder(t, s, "conv", []string{"m0", "m1", "m2"})

	if got, _ := s.GetMessage("m1"); got.Text() != "revised" {
		t.Errorf("merge did not replace collided message: %q", got.Text())
	}

	// Replace drops everything first.
	s.Ingest("conv", []*message.Message{msgAt("conv", "m9", base.Add(time.Hour))}, true)
	assertOrder(t, s, "conv", []string{"m9"})
	if _, ok := s.GetMessage("m1"); ok {
		t.Error("replace should evict prior messages from the index")
	}
}

func TestAppendChunk(t *testing.T) {
	s := NewStore()
	at := time.Now()
	if err := s.AddMessage(msgAt("conv", "m1", at)); err != nil {
		t.Fatal(err)
	}
	placeholder := &message.Message{
		ID:             "a1",
		ConversationID: "conv",
		Role:           message.RoleAssistant,
		CreatedAt:      at.Add(time.Second),
	}
	if err := s.AddMessage(placeholder); err != nil {
		t.Fatal(err)
	}

	s.AppendChunk("a1", ChunkText, "Hel")
	s.AppendChunk("a1", ChunkText, "lo")
	s.AppendChunk("a1", ChunkReasoning, "checking greeting")
	s.AppendChunk("missing", ChunkText, "dropped")

	got, ok := s.GetMessage("a1")
	if !ok {
		t.Fatal("message missing")
	}
	if got.Text() != "Hello" {
		t.Errorf("text chunks not appended: %q", got.Text())
	}
	if got.Reasoning != "checking greeting" {
		t.Errorf("reasoning chunk not appended: %q", got.Reasoning)
	}
}

func TestConversationsSortedByActivity(t *testing.T) {
	s := NewStore()
	older := &message.Conversation{ID: "c1", Title: "first"}
	newer := &message.Conversation{ID: "c2", Title: "second"}
	s.AddConversation(older)
	s.AddConversation(newer)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.AddMessage(msgAt("c2", "m1", base)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage(msgAt("c1", "m2", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	convs := s.Conversations()
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != "c1" {
		t.Errorf("most recently active conversation should sort first, got %s", convs[0].ID)
	}
}

func TestGetMessageReturnsCopy(t *testing.T) {
	s := NewStore()
	if err := s.AddMessage(msgAt("conv", "m1", time.Now())); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetMessage("m1")
	got.SetText("mutated")

	again, _ := s.GetMessage("m1")
	if again.Text() == "mutated" {
		t.Error("GetMessage must not expose internal state")
	}
}
