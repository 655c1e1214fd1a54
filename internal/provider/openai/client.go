// Package openai implements the LLMProvider interface using the OpenAI SDK.
// OpenAI-compatible endpoints are supported via a custom base URL, in which
// case reasoning deltas are read from the reasoning_content extension field.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/driftlabs/drift/internal/log"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/provider"
)

// Client implements the LLMProvider interface using the OpenAI SDK.
type Client struct {
	client openai.Client
	name   string
}

// NewClient creates a new OpenAI client with the given SDK client.
func NewClient(client openai.Client, name string) *Client {
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

		// Convert messages to OpenAI format
		messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(opts.Messages)+1)

		if opts.SystemPrompt != "" {
			messages = append(messages, openai.SystemMessage(opts.SystemPrompt))
		}

		for _, msg := range opts.Messages {
			switch msg.Role {
			case message.RoleUser:
				if text, ok := plainText(msg); ok {
					messages = append(messages, openai.UserMessage(text))
				} else {
					messages = append(messages, openai.ChatCompletionMessageParamUnion{
						OfUser: &openai.ChatCompletionUserMessageParam{
							Content: openai.ChatCompletionUserMessageParamContentUnion{
								OfArrayOfContentParts: userParts(msg),
							},
						},
					})
				}
			case message.RoleAssistant:
				messages = append(messages, openai.AssistantMessage(assistantText(msg)))
			default: // system messages
				messages = append(messages, openai.SystemMessage(msg.Text()))
			}
		}

		// Build request params; only explicitly set parameters are forwarded
		params := openai.ChatCompletionNewParams{
			Model:    opts.Model,
			Messages: messages,
		}

		if opts.Params.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(opts.Params.MaxTokens))
		}
		if opts.Params.Temperature != nil {
			params.Temperature = openai.Float(*opts.Params.Temperature)
		}
		if opts.Params.TopP != nil {
			params.TopP = openai.Float(*opts.Params.TopP)
		}
		if opts.Params.FrequencyPenalty != nil {
			params.FrequencyPenalty = openai.Float(*opts.Params.FrequencyPenalty)
		}
		if opts.Params.PresencePenalty != nil {
			params.PresencePenalty = openai.Float(*opts.Params.PresencePenalty)
		}

		// Reasoning is opt-in. Compatible endpoints reject unknown fields,
		// which surfaces as a parameter rejection handled by the retry layer.
		if opts.Reasoning {
			params.SetExtraFields(map[string]any{
				"thinking": map[string]any{"type": "enabled"},
			})
		}

		log.LogRequest(c.name, opts.Model, opts)

		stream := c.client.Chat.Completions.NewStreaming(ctx, params)

		var response provider.CompletionResponse

		streamStart := time.Now()
		chunkCount := 0

		for stream.Next() {
			chunk := stream.Current()
			chunkCount++

			for _, choice := range chunk.Choices {
				// Reasoning deltas arrive in the reasoning_content extension
				// field, which is not in the SDK struct; parse the raw JSON.
				if rawJSON := choice.Delta.RawJSON(); rawJSON != "" {
					var deltaMap map[string]any
					if err := json.Unmarshal([]byte(rawJSON), &deltaMap); err == nil {
						if rc, ok := deltaMap["reasoning_content"].(string); ok && rc != "" {
							ch <- provider.StreamChunk{
								Type: provider.ChunkTypeReasoning,
								Text: rc,
							}
							response.Reasoning += rc
						}
					}
				}

				if choice.Delta.Content != "" {
					ch <- provider.StreamChunk{
						Type: provider.ChunkTypeText,
						Text: choice.Delta.Content,
					}
					response.Content += choice.Delta.Content
				}

				if choice.FinishReason != "" {
					switch choice.FinishReason {
					case "stop":
						response.StopReason = "end_turn"
					case "length":
						response.StopReason = "max_tokens"
					default:
						response.StopReason = choice.FinishReason
					}
				}
			}

			if chunk.Usage.PromptTokens > 0 {
				response.Usage.InputTokens = int(chunk.Usage.PromptTokens)
			}
			if chunk.Usage.CompletionTokens > 0 {
				response.Usage.OutputTokens = int(chunk.Usage.CompletionTokens)
			}
		}

		log.LogStreamDone(c.name, time.Since(streamStart), chunkCount)

		if err := stream.Err(); err != nil {
			log.LogError(c.name, err)
			ch <- provider.StreamChunk{
				Type:  provider.ChunkTypeError,
				Error: err,
			}
			return
		}

		log.LogResponse(c.name, response)

		ch <- provider.StreamChunk{
			Type:     provider.ChunkTypeDone,
			Response: &response,
		}
	}()

	return ch
}

// plainText reports whether the message degenerates to a plain string: a
// single non-empty text part.
func plainText(msg message.Message) (string, bool) {
	if len(msg.Content) == 1 && msg.Content[0].Type == message.PartText && msg.Content[0].Text != "" {
		return msg.Content[0].Text, true
	}
	return "", false
}

// userParts converts message content to an ordered list of provider-native
// parts. Unsupported part kinds become textual markers.
func userParts(msg message.Message) []openai.ChatCompletionContentPartUnionParam {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Content))
	for _, part := range msg.Content {
		switch part.Type {
		case message.PartText:
			if part.Text != "" {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfText: &openai.ChatCompletionContentPartTextParam{
						Text: part.Text,
					},
				})
			}
		case message.PartImage:
			if part.Image != nil && part.Image.Data != "" {
				dataURI := fmt.Sprintf("data:%s;base64,%s", part.Image.MediaType, part.Image.Data)
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfImageURL: &openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
							URL: dataURI,
						},
					},
				})
			}
		default:
			parts = append(parts, openai.ChatCompletionContentPartUnionParam{
				OfText: &openai.ChatCompletionContentPartTextParam{
					Text: markerFor(part),
				},
			})
		}
	}
	return parts
}

// assistantText flattens assistant content to text, replacing non-text
// parts with markers so history round-trips through the wire format.
func assistantText(msg message.Message) string {
	var out string
	for _, part := range msg.Content {
		if part.Type == message.PartText {
			out += part.Text
		} else {
			out += markerFor(part)
		}
	}
	return out
}

// markerFor renders a non-text part as its textual marker.
func markerFor(part message.ContentPart) string {
	switch part.Type {
	case message.PartToolCall:
		name := ""
		if part.ToolCall != nil {
			name = part.ToolCall.Name
		}
		return provider.PartMarker("tool-call", name)
	case message.PartCitation:
		source := ""
		if part.Citation != nil {
			source = part.Citation.Source
		}
		return provider.PartMarker("citation", source)
	case message.PartTempFile:
		name := ""
		if part.TempFile != nil {
			name = part.TempFile.Name
		}
		return provider.PartMarker("file", name)
	case message.PartImage:
		return provider.PartMarker("image", "")
	}
	return provider.PartMarker(string(part.Type), "")
}

// Ensure Client implements LLMProvider
var _ provider.LLMProvider = (*Client)(nil)
