// Package stream defines the phased event protocol between the generation
// side and the display side, and the ordered bus that carries it.
package stream

import (
	"github.com/driftlabs/drift/internal/message"
)

// EventType identifies a lifecycle or content event.
type EventType string

const (
	EventStart          EventType = "start"
	EventReasoningStart EventType = "reasoning-start"
	EventReasoningChunk EventType = "reasoning-chunk"
	EventReasoningEnd   EventType = "reasoning-end"
	EventTextStart      EventType = "text-start"
	EventTextChunk      EventType = "text-chunk"
	EventTextEnd        EventType = "text-end"
	EventEnded          EventType = "ended"
	EventCancelled      EventType = "cancelled"
	EventErrored        EventType = "errored"
)

// Event is the tagged union carried over the bus. Events for a given
// MessageID are delivered in an order consistent with the generation
// session's phase transitions; no ordering holds across message ids.
type Event struct {
	Type           EventType
	MessageID      string
	ConversationID string

	// Text carries the increment for chunk events.
	Text string

	// Message carries the final message for ended, and the best-effort
	// partial message for cancelled and (when available) errored.
	Message *message.Message

	// Usage is populated on ended.
	Usage message.Usage

	// Code and Err describe errored events.
	Code string
	Err  string
}

// Terminal reports whether the event closes its generation session. After
// a terminal event no further events for the same message id are valid.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventEnded, EventCancelled, EventErrored:
		return true
	}
	return false
}
