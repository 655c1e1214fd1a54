package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/driftlabs/drift/internal/message"
)

// messageMarshaler wraps a Message for zap logging.
type messageMarshaler message.Message

func (m messageMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", m.ID)
	enc.AddString("role", string(m.Role))
	msg := message.Message(m)
	enc.AddString("text", msg.Text())
	if m.Reasoning != "" {
		enc.AddString("reasoning", m.Reasoning)
	}
	enc.AddInt("parts", len(m.Content))
	return nil
}

// messagesMarshaler wraps a slice of Messages for zap logging.
type messagesMarshaler []message.Message

func (m messagesMarshaler) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, msg := range m {
		_ = enc.AppendObject(messageMarshaler(msg))
	}
	return nil
}

// MessagesField creates a zap field for messages.
func MessagesField(messages []message.Message) zap.Field {
	return zap.Array("messages", messagesMarshaler(messages))
}

// usageMarshaler wraps Usage for zap logging.
type usageMarshaler message.Usage

func (u usageMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("input_tokens", u.InputTokens)
	enc.AddInt("output_tokens", u.OutputTokens)
	return nil
}

// UsageField creates a zap field for usage.
func UsageField(usage message.Usage) zap.Field {
	return zap.Object("usage", usageMarshaler(usage))
}
