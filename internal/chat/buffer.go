// Package chat holds the display-side conversation state: the message store
// the UI renders from and the chunk buffer that batches stream increments
// into store mutations.
package chat

import (
	"strings"
	"sync"
	"time"
)

// flushInterval batches chunk appends so each message mutates at most a few
// times per second instead of once per provider chunk.
const flushInterval = 50 * time.Millisecond

// ChunkKind separates text and reasoning accumulation for one message.
type ChunkKind string

const (
	ChunkText      ChunkKind = "text"
	ChunkReasoning ChunkKind = "reasoning"
)

type bufferKey struct {
	messageID string
	kind      ChunkKind
}

// ApplyFunc receives one coalesced increment per flush. Chunks enqueued for
// the same message and kind arrive concatenated in arrival order.
type ApplyFunc func(messageID string, kind ChunkKind, text string)

// ChunkBuffer coalesces stream chunks per message and kind and flushes them
// on an interval. Finalize flushes a message synchronously so terminal
// handling never races a pending timer; Clear discards without applying.
type ChunkBuffer struct {
	mu      sync.Mutex
	apply   ApplyFunc
	pending map[bufferKey]*strings.Builder
	order   []bufferKey
	timer   *time.Timer
	closed  bool
}

// NewChunkBuffer creates a buffer that delivers coalesced chunks to apply.
func NewChunkBuffer(apply ApplyFunc) *ChunkBuffer {
	return &ChunkBuffer{
		apply:   apply,
		pending: make(map[bufferKey]*strings.Builder),
	}
}

// Enqueue appends a chunk to the pending accumulation for the message and
// kind, arming the flush timer if it is not already running.
func (b *ChunkBuffer) Enqueue(messageID string, kind ChunkKind, text string) {
	if text == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	key := bufferKey{messageID: messageID, kind: kind}
	builder, ok := b.pending[key]
	if !ok {
		builder = &strings.Builder{}
		b.pending[key] = builder
		b.order = append(b.order, key)
	}
	builder.WriteString(text)

	if b.timer == nil {
		b.timer = time.AfterFunc(flushInterval, b.flushTimer)
	}
}

// flushTimer runs on timer expiry and drains everything pending.
func (b *ChunkBuffer) flushTimer() {
	b.mu.Lock()
	b.timer = nil
	batch := b.takeLocked(func(bufferKey) bool { return true })
	b.mu.Unlock()

	b.deliver(batch)
}

// Flush synchronously drains all pending accumulation.
func (b *ChunkBuffer) Flush() {
	b.mu.Lock()
	batch := b.takeLocked(func(bufferKey) bool { return true })
	b.mu.Unlock()

	b.deliver(batch)
}

// Finalize synchronously flushes everything pending for one message. Called
// on terminal events so the store reflects all received chunks before the
// authoritative content lands.
func (b *ChunkBuffer) Finalize(messageID string) {
	b.mu.Lock()
	batch := b.takeLocked(func(k bufferKey) bool { return k.messageID == messageID })
	b.mu.Unlock()

	b.deliver(batch)
}

// Clear discards pending accumulation for one message without applying it.
// Used when the terminal event carries the authoritative full content.
func (b *ChunkBuffer) Clear(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.takeLocked(func(k bufferKey) bool { return k.messageID == messageID })
}

// Close discards all pending state and stops the timer.
func (b *ChunkBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[bufferKey]*strings.Builder)
	b.order = nil
}

type flushEntry struct {
	key  bufferKey
	text string
}

// takeLocked removes and returns matching entries in enqueue order. Caller
// holds the mutex.
func (b *ChunkBuffer) takeLocked(match func(bufferKey) bool) []flushEntry {
	var batch []flushEntry
	var keep []bufferKey

	for _, key := range b.order {
		if !match(key) {
			keep = append(keep, key)
			continue
		}
		builder := b.pending[key]
		delete(b.pending, key)
		if builder != nil && builder.Len() > 0 {
			batch = append(batch, flushEntry{key: key, text: builder.String()})
		}
	}
	b.order = keep
	return batch
}

// deliver applies a drained batch outside the mutex.
func (b *ChunkBuffer) deliver(batch []flushEntry) {
	if b.apply == nil {
		return
	}
	for _, entry := range batch {
		b.apply(entry.key.messageID, entry.key.kind, entry.text)
	}
}
