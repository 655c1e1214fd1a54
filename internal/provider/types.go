// Package provider defines the interface to streaming LLM backends and the
// model configuration consumed by the rest of the engine.
package provider

import (
	"context"
	"time"

	"github.com/driftlabs/drift/internal/message"
)

// Kind identifies a provider implementation.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGoogle    Kind = "google"
)

// Capabilities are the optional features a model supports. The engine only
// forwards reasoning parameters when SupportsReasoning is set.
type Capabilities struct {
	SupportsReasoning bool `json:"supportsReasoning" yaml:"supportsReasoning"`
	SupportsVision    bool `json:"supportsVision" yaml:"supportsVision"`
	SupportsToolUse   bool `json:"supportsToolUse" yaml:"supportsToolUse"`
	SupportsWebSearch bool `json:"supportsWebSearch" yaml:"supportsWebSearch"`
}

// ModelConfig identifies a provider endpoint together with credentials and
// default generation parameters. Immutable once resolved for a generation;
// owned by the configuration registry.
type ModelConfig struct {
	ID          string       `json:"id" yaml:"id"`
	DisplayName string       `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Provider    Kind         `json:"provider" yaml:"provider"`
	Model       string       `json:"model" yaml:"model"`
	BaseURL     string       `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	APIKeyEnv   string       `json:"apiKeyEnv,omitempty" yaml:"apiKeyEnv,omitempty"`
	Params      Params       `json:"params,omitempty" yaml:"params,omitempty"`
	Caps        Capabilities `json:"capabilities" yaml:"capabilities"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"createdAt"`
}

// Params are generation parameters. Pointer fields distinguish "explicitly
// set" from "absent": only set parameters are forwarded to the provider.
type Params struct {
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty" yaml:"topP,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty" yaml:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty" yaml:"presencePenalty,omitempty"`
	MaxTokens        int      `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
}

// CompletionOptions contains everything needed for one streaming request.
type CompletionOptions struct {
	Model        string
	Messages     []message.Message
	Params       Params
	SystemPrompt string

	// Reasoning opts in to reasoning-specific parameters. Callers set it
	// only when the resolved model's capabilities allow it.
	Reasoning bool
}

// ChunkType represents the type of a stream chunk.
type ChunkType string

const (
	ChunkTypeText      ChunkType = "text"
	ChunkTypeReasoning ChunkType = "reasoning"
	ChunkTypeDone      ChunkType = "done"
	ChunkTypeError     ChunkType = "error"
)

// StreamChunk represents one increment of a streaming response.
type StreamChunk struct {
	Type     ChunkType
	Text     string              // for text and reasoning chunks
	Response *CompletionResponse // for done chunks
	Error    error               // for error chunks
}

// CompletionResponse is the accumulated result of a completed stream.
type CompletionResponse struct {
	Content    string        `json:"content,omitempty"`
	Reasoning  string        `json:"reasoning,omitempty"`
	StopReason string        `json:"stop_reason"` // "end_turn", "max_tokens"
	Usage      message.Usage `json:"usage"`
}

// LLMProvider is the interface all provider adapters implement.
type LLMProvider interface {
	// Stream sends a completion request and returns a channel of chunks.
	// The channel is closed after a done or error chunk.
	Stream(ctx context.Context, opts CompletionOptions) <-chan StreamChunk

	// Name returns the provider name for logging.
	Name() string
}

// Factory creates an LLMProvider bound to a model configuration.
type Factory func(cfg ModelConfig) (LLMProvider, error)
