package chat

import (
	"sync"
	"testing"
	"time"
)

// recordingApply collects flush deliveries for assertions.
type recordingApply struct {
	mu      sync.Mutex
	applied []flushEntry
}

func (r *recordingApply) apply(messageID string, kind ChunkKind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, flushEntry{key: bufferKey{messageID: messageID, kind: kind}, text: text})
}

func (r *recordingApply) snapshot() []flushEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]flushEntry, len(r.applied))
	copy(out, r.applied)
	return out
}

func TestBufferCoalescesChunks(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	defer b.Close()

	b.Enqueue("msg-1", ChunkText, "He")
	b.Enqueue("msg-1", ChunkText, "llo")
	b.Flush()

	applied := rec.snapshot()
	if len(applied) != 1 {
		t.Fatalf("expected a single coalesced mutation, got %d: %+v", len(applied), applied)
	}
	if applied[0].text != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", applied[0].text)
	}
}

func TestBufferSeparatesKinds(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	defer b.Close()

	b.Enqueue("msg-1", ChunkReasoning, "hmm ")
	b.Enqueue("msg-1", ChunkText, "Hi")
	b.Enqueue("msg-1", ChunkReasoning, "okay")
	b.Flush()

	applied := rec.snapshot()
	if len(applied) != 2 {
		t.Fatalf("expected 2 entries (one per kind), got %+v", applied)
	}
	// Reasoning was enqueued first, so it flushes first.
	if applied[0].key.kind != ChunkReasoning || applied[0].text != "hmm okay" {
		t.Errorf("reasoning entry wrong: %+v", applied[0])
	}
	if applied[1].key.kind != ChunkText || applied[1].text != "Hi" {
		t.Errorf("text entry wrong: %+v", applied[1])
	}
}

func TestBufferTimerFlush(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	defer b.Close()

	b.Enqueue("msg-1", ChunkText, "tick")

	deadline := time.Now().Add(time.Second)
	for {
		if len(rec.snapshot()) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timer flush never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	applied := rec.snapshot()
	if applied[0].text != "tick" {
		t.Errorf("got %q", applied[0].text)
	}
}

func TestFinalizeFlushesOnlyTargetMessage(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	defer b.Close()

	b.Enqueue("msg-1", ChunkText, "one")
	b.Enqueue("msg-2", ChunkText, "two")

	b.Finalize("msg-1")

	applied := rec.snapshot()
	if len(applied) != 1 || applied[0].key.messageID != "msg-1" {
		t.Fatalf("Finalize leaked other messages: %+v", applied)
	}

	b.Flush()
	applied = rec.snapshot()
	if len(applied) != 2 || applied[1].key.messageID != "msg-2" {
		t.Fatalf("remaining message lost: %+v", applied)
	}
}

func TestClearDiscardsWithoutApplying(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	defer b.Close()

	b.Enqueue("msg-1", ChunkText, "discard me")
	b.Clear("msg-1")
	b.Flush()

	if applied := rec.snapshot(); len(applied) != 0 {
		t.Errorf("cleared content was applied: %+v", applied)
	}
}

func TestEnqueueAfterCloseIsNoOp(t *testing.T) {
	rec := &recordingApply{}
	b := NewChunkBuffer(rec.apply)
	b.Close()

	b.Enqueue("msg-1", ChunkText, "late")
	b.Flush()

	if applied := rec.snapshot(); len(applied) != 0 {
		t.Errorf("closed buffer accepted chunks: %+v", applied)
	}
}
