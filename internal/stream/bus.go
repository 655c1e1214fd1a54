package stream

import (
	"sync"

	"github.com/driftlabs/drift/internal/message"
)

// subscriberBuffer bounds how far a slow subscriber may lag before
// publishers block on it.
const subscriberBuffer = 256

// Bus is the in-process event channel between the generation side and the
// display side. Delivery to each subscriber is FIFO in publish order, which
// preserves per-message ordering because each message's events are
// published from a single goroutine.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its event channel. The
// channel is closed when the bus closes.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers an event to every subscriber. Blocks when a subscriber's
// buffer is full rather than dropping or reordering. The lock is held across
// the sends so a concurrent Close cannot close a channel mid-publish.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		ch <- ev
	}
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Emitter serializes one generation's lifecycle events onto the bus.
type Emitter struct {
	bus            *Bus
	messageID      string
	conversationID string
}

// NewEmitter creates an emitter bound to a message and conversation.
func NewEmitter(bus *Bus, conversationID, messageID string) *Emitter {
	return &Emitter{
		bus:            bus,
		messageID:      messageID,
		conversationID: conversationID,
	}
}

// emit stamps the ids onto the event and publishes it.
func (e *Emitter) emit(ev Event) {
	ev.MessageID = e.messageID
	ev.ConversationID = e.conversationID
	e.bus.Publish(ev)
}

// Start signals that generation began; the consumer materializes its
// placeholder message on this event.
func (e *Emitter) Start() {
	e.emit(Event{Type: EventStart})
}

// ReasoningStart opens the reasoning phase.
func (e *Emitter) ReasoningStart() {
	e.emit(Event{Type: EventReasoningStart})
}

// ReasoningChunk carries a reasoning increment.
func (e *Emitter) ReasoningChunk(text string) {
	e.emit(Event{Type: EventReasoningChunk, Text: text})
}

// ReasoningEnd is the authoritative closure of the reasoning phase.
func (e *Emitter) ReasoningEnd() {
	e.emit(Event{Type: EventReasoningEnd})
}

// TextStart opens the text phase.
func (e *Emitter) TextStart() {
	e.emit(Event{Type: EventTextStart})
}

// TextChunk carries a text increment.
func (e *Emitter) TextChunk(text string) {
	e.emit(Event{Type: EventTextChunk, Text: text})
}

// TextEnd closes the text phase.
func (e *Emitter) TextEnd() {
	e.emit(Event{Type: EventTextEnd})
}

// Ended emits the successful terminal event with the final message.
func (e *Emitter) Ended(msg *message.Message, usage message.Usage) {
	e.emit(Event{Type: EventEnded, Message: msg, Usage: usage})
}

// Cancelled emits the cancellation terminal event with the partial message.
func (e *Emitter) Cancelled(partial *message.Message) {
	e.emit(Event{Type: EventCancelled, Message: partial})
}

// Errored emits the failure terminal event; partial may be nil.
func (e *Emitter) Errored(code string, err error, partial *message.Message) {
	ev := Event{Type: EventErrored, Code: code, Message: partial}
	if err != nil {
		ev.Err = err.Error()
	}
	e.emit(ev)
}
