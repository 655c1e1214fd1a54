package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftlabs/drift/internal/message"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	conv := message.Conversation{
		ID:        "conv-1",
		Title:     "Weather chat",
		ModelID:   "sonnet",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	msgs := []message.Message{
		*message.NewUser("conv-1", "Hi"),
		*message.NewAssistant("conv-1"),
	}
	msgs[1].SetText("Hello")
	msgs[1].Reasoning = "greeting back"

	if err := store.Save(conv, msgs); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load("conv-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Metadata.Title != "Weather chat" || loaded.Metadata.ModelID != "sonnet" {
		t.Errorf("metadata mismatch: %+v", loaded.Metadata)
	}
	if loaded.Metadata.MessageCount != 2 || len(loaded.Messages) != 2 {
		t.Fatalf("message count mismatch: %+v", loaded.Metadata)
	}
	if loaded.Messages[1].Text() != "Hello" {
		t.Errorf("content lost: %q", loaded.Messages[1].Text())
	}
	if loaded.Messages[1].Reasoning != "greeting back" {
		t.Errorf("reasoning lost: %q", loaded.Messages[1].Reasoning)
	}
}

func TestUpdateMessageUpsertsIntoTranscript(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	user := message.NewUser("conv-up", "Hi")
	if err := store.UpdateMessage(user); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	assistant := message.NewAssistant("conv-up")
	assistant.SetText("partial")
	if err := store.UpdateMessage(assistant); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	assistant.SetText("final answer")
	if err := store.UpdateMessage(assistant); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	tr, err := store.Load("conv-up")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(tr.Messages) != 2 || tr.Metadata.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d (count %d)", len(tr.Messages), tr.Metadata.MessageCount)
	}
	if tr.Messages[0].Text() != "Hi" {
		t.Errorf("user message misplaced: %q", tr.Messages[0].Text())
	}
	if tr.Messages[1].Text() != "final answer" {
		t.Errorf("replacement lost: %q", tr.Messages[1].Text())
	}

	if err := store.UpdateMessage(&message.Message{ID: "x"}); err == nil {
		t.Error("expected error for missing conversation id")
	}
}

func TestTranscriptConversationRestoresMetadata(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	conv := message.Conversation{
		ID:        "conv-r",
		Title:     "Trip planning",
		ModelID:   "sonnet",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := store.Save(conv, []message.Message{*message.NewUser("conv-r", "Hi")}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tr, err := store.Load("conv-r")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	got := tr.Conversation()
	if got.ID != "conv-r" || got.Title != "Trip planning" || got.ModelID != "sonnet" {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("updatedAt not carried over")
	}
}

func TestSaveRequiresID(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(message.Conversation{}, nil); err == nil {
		t.Error("expected error for missing conversation id")
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"first", "second"} {
		if err := store.Save(message.Conversation{ID: id}, nil); err != nil {
			t.Fatal(err)
		}
	}
	// Force distinct update times.
	rewriteUpdatedAt(t, dir, "first", time.Now().Add(-time.Hour))

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 transcripts, got %d", len(metas))
	}
	if metas[0].ID != "second" {
		t.Errorf("expected newest first, got %s", metas[0].ID)
	}

	latest, err := store.GetLatest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.Metadata.ID != "second" {
		t.Errorf("GetLatest returned %s", latest.Metadata.ID)
	}
}

func TestListSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(message.Conversation{ID: "good"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != "good" {
		t.Errorf("invalid files should be skipped: %+v", metas)
	}
}

func TestDelete(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(message.Conversation{ID: "gone"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("gone"); err == nil {
		t.Error("expected load to fail after delete")
	}
	// Deleting again is fine.
	if err := store.Delete("gone"); err != nil {
		t.Errorf("repeat delete should be a no-op: %v", err)
	}
}

func TestCleanupRemovesExpiredTranscripts(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"old", "new"} {
		if err := store.Save(message.Conversation{ID: id}, nil); err != nil {
			t.Fatal(err)
		}
	}
	rewriteUpdatedAt(t, dir, "old", time.Now().AddDate(0, 0, -(RetentionDays+1)))

	if err := store.Cleanup(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "old.json")); !os.IsNotExist(err) {
		t.Error("expected expired transcript to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "new.json")); err != nil {
		t.Error("expected fresh transcript to survive cleanup")
	}
}

// rewriteUpdatedAt rewrites a stored transcript with a fixed update time,
// bypassing Save's stamping.
func rewriteUpdatedAt(t *testing.T, dir, id string, at time.Time) {
	t.Helper()
	path := filepath.Join(dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		t.Fatal(err)
	}
	transcript.Metadata.UpdatedAt = at
	out, _ := json.MarshalIndent(transcript, "", "  ")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatal(err)
	}
}
