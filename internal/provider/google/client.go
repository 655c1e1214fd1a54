// Package google implements the LLMProvider interface using the Google
// GenAI SDK. Thought parts map to the reasoning chunk kind.
package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/driftlabs/drift/internal/log"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/provider"
)

// Client implements the LLMProvider interface using the Google GenAI SDK.
type Client struct {
	client *genai.Client
	name   string
}

// NewClient creates a new Google client with the given SDK client.
func NewClient(client *genai.Client, name string) *Client {
	return &Client{
		client: client,
		name:   name,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Stream sends a completion request and returns a channel of streaming chunks.
func (c *Client) Stream(ctx context.Context, opts provider.CompletionOptions) <-chan provider.StreamChunk {
	ch := make(chan provider.StreamChunk)

	go func() {
		defer close(ch)

		// Convert messages to Google format
		contents := make([]*genai.Content, 0, len(opts.Messages))
		for _, msg := range opts.Messages {
			var role string
			switch msg.Role {
			case message.RoleUser:
				role = "user"
			case message.RoleAssistant:
				role = "model"
			default:
				role = string(msg.Role)
			}

			contents = append(contents, &genai.Content{
				Role:  role,
				Parts: genaiParts(msg),
			})
		}

		config := &genai.GenerateContentConfig{}

		if opts.SystemPrompt != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: opts.SystemPrompt}},
			}
		}

		// Only explicitly set parameters are forwarded
		if opts.Params.MaxTokens > 0 {
			config.MaxOutputTokens = int32(opts.Params.MaxTokens)
		}
		if opts.Params.Temperature != nil {
			temp := float32(*opts.Params.Temperature)
			config.Temperature = &temp
		}
		if opts.Params.TopP != nil {
			topP := float32(*opts.Params.TopP)
			config.TopP = &topP
		}
		if opts.Params.FrequencyPenalty != nil {
			fp := float32(*opts.Params.FrequencyPenalty)
			config.FrequencyPenalty = &fp
		}
		if opts.Params.PresencePenalty != nil {
			pp := float32(*opts.Params.PresencePenalty)
			config.PresencePenalty = &pp
		}

		if opts.Reasoning {
			config.ThinkingConfig = &genai.ThinkingConfig{
				IncludeThoughts: true,
			}
		}

		log.LogRequest(c.name, opts.Model, opts)

		var response provider.CompletionResponse

		streamStart := time.Now()
		chunkCount := 0

		for result, err := range c.client.Models.GenerateContentStream(ctx, opts.Model, contents, config) {
			if err != nil {
				log.LogError(c.name, err)
				ch <- provider.StreamChunk{
					Type:  provider.ChunkTypeError,
					Error: err,
				}
				return
			}
			chunkCount++

			for _, candidate := range result.Candidates {
				if candidate.Content == nil {
					continue
				}

				for _, part := range candidate.Content.Parts {
					if part.Text == "" {
						continue
					}
					if part.Thought {
						ch <- provider.StreamChunk{
							Type: provider.ChunkTypeReasoning,
							Text: part.Text,
						}
						response.Reasoning += part.Text
					} else {
						ch <- provider.StreamChunk{
							Type: provider.ChunkTypeText,
							Text: part.Text,
						}
						response.Content += part.Text
					}
				}

				if candidate.FinishReason != "" {
					switch candidate.FinishReason {
					case "STOP":
						response.StopReason = "end_turn"
					case "MAX_TOKENS":
						response.StopReason = "max_tokens"
					default:
						response.StopReason = string(candidate.FinishReason)
					}
				}
			}

			if result.UsageMetadata != nil {
				response.Usage.InputTokens = int(result.UsageMetadata.PromptTokenCount)
				response.Usage.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
			}
		}

		log.LogStreamDone(c.name, time.Since(streamStart), chunkCount)

		log.LogResponse(c.name, response)

		ch <- provider.StreamChunk{
			Type:     provider.ChunkTypeDone,
			Response: &response,
		}
	}()

	return ch
}

// genaiParts converts message parts to GenAI parts in order. Unsupported
// part kinds become textual markers.
func genaiParts(msg message.Message) []*genai.Part {
	parts := make([]*genai.Part, 0, len(msg.Content))
	for _, part := range msg.Content {
		switch part.Type {
		case message.PartText:
			if part.Text != "" {
				parts = append(parts, &genai.Part{Text: part.Text})
			}
		case message.PartImage:
			if part.Image != nil && part.Image.Data != "" {
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{
						MIMEType: part.Image.MediaType,
						Data:     []byte(part.Image.Data),
					},
				})
			}
		case message.PartToolCall:
			name := ""
			if part.ToolCall != nil {
				name = part.ToolCall.Name
			}
			parts = append(parts, &genai.Part{Text: provider.PartMarker("tool-call", name)})
		case message.PartCitation:
			source := ""
			if part.Citation != nil {
				source = part.Citation.Source
			}
			parts = append(parts, &genai.Part{Text: provider.PartMarker("citation", source)})
		case message.PartTempFile:
			name := ""
			if part.TempFile != nil {
				name = part.TempFile.Name
			}
			parts = append(parts, &genai.Part{Text: provider.PartMarker("file", name)})
		}
	}
	if len(parts) == 0 {
		parts = append(parts, &genai.Part{Text: ""})
	}
	return parts
}

// newFromConfig creates a Google provider bound to a model configuration.
func newFromConfig(cfg provider.ModelConfig) (provider.LLMProvider, error) {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("missing credential: %s is not set", cfg.APIKeyEnv)
		}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return NewClient(client, "google:"+cfg.ID), nil
}

// init registers the provider factory.
func init() {
	provider.Register(provider.KindGoogle, newFromConfig)
}

// Ensure Client implements LLMProvider
var _ provider.LLMProvider = (*Client)(nil)
