// Package anthropic implements the LLMProvider interface using the
// Anthropic SDK. Thinking blocks map to the reasoning chunk kind.
package anthropic

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/driftlabs/drift/internal/log"
	"github.com/driftlabs/drift/internal/message"
	"github.com/driftlabs/drift/internal/provider"
)

// defaultMaxTokens is used when the caller did not set an output limit;
// the Messages API requires one.
const defaultMaxTokens = 8192

// thinkingBudget is the token budget granted to extended thinking when
// reasoning is enabled.
const thinkingBudget = 4096

// Client implements the LLMProvider interface using the Anthropic SDK.
type Client struct {
	client anthropic.Client
	name   string
}

// NewClient creates a new Anthropic client with the given SDK client.
func NewClient(client anthropic.Client, name string) *Client {
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

		// Convert messages to Anthropic format
		anthropicMsgs := make([]anthropic.MessageParam, 0, len(opts.Messages))
		for _, msg := range opts.Messages {
			switch msg.Role {
			case message.RoleUser:
				anthropicMsgs = append(anthropicMsgs, anthropic.NewUserMessage(contentBlocks(msg)...))
			case message.RoleAssistant:
				anthropicMsgs = append(anthropicMsgs, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(flattenText(msg)),
				))
			}
		}

		maxTokens := opts.Params.MaxTokens
		if maxTokens <= 0 {
			maxTokens = defaultMaxTokens
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(opts.Model),
			MaxTokens: int64(maxTokens),
			Messages:  anthropicMsgs,
		}

		if opts.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{
				{Text: opts.SystemPrompt},
			}
		}

		// Only explicitly set parameters are forwarded; the Messages API has
		// no penalty parameters, so those are never sent here.
		if opts.Params.Temperature != nil {
			params.Temperature = anthropic.Float(*opts.Params.Temperature)
		}
		if opts.Params.TopP != nil {
			params.TopP = anthropic.Float(*opts.Params.TopP)
		}

		if opts.Reasoning {
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(thinkingBudget)
		}

		log.LogRequest(c.name, opts.Model, opts)

		stream := c.client.Messages.NewStreaming(ctx, params)

		var response provider.CompletionResponse

		streamStart := time.Now()
		chunkCount := 0

		for stream.Next() {
			event := stream.Current()
			chunkCount++

			switch event.Type {
			case "content_block_delta":
				delta := event.AsContentBlockDelta()
				switch delta.Delta.Type {
				case "thinking_delta":
					if delta.Delta.Thinking != "" {
						ch <- provider.StreamChunk{
							Type: provider.ChunkTypeReasoning,
							Text: delta.Delta.Thinking,
						}
						response.Reasoning += delta.Delta.Thinking
					}
				case "text_delta":
					if delta.Delta.Text != "" {
						ch <- provider.StreamChunk{
							Type: provider.ChunkTypeText,
							Text: delta.Delta.Text,
						}
						response.Content += delta.Delta.Text
					}
				}

			case "message_delta":
				msgDelta := event.AsMessageDelta()
				switch msgDelta.Delta.StopReason {
				case "end_turn":
					response.StopReason = "end_turn"
				case "max_tokens":
					response.StopReason = "max_tokens"
				default:
					response.StopReason = string(msgDelta.Delta.StopReason)
				}
				response.Usage.OutputTokens = int(msgDelta.Usage.OutputTokens)

			case "message_start":
				msgStart := event.AsMessageStart()
				response.Usage.InputTokens = int(msgStart.Message.Usage.InputTokens)
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

// contentBlocks converts message parts to Anthropic content blocks in
// order. Unsupported part kinds become textual markers.
func contentBlocks(msg message.Message) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, part := range msg.Content {
		switch part.Type {
		case message.PartText:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case message.PartImage:
			if part.Image != nil && part.Image.Data != "" {
				blocks = append(blocks, anthropic.NewImageBlockBase64(
					part.Image.MediaType,
					part.Image.Data,
				))
			}
		case message.PartToolCall:
			name := ""
			if part.ToolCall != nil {
				name = part.ToolCall.Name
			}
			blocks = append(blocks, anthropic.NewTextBlock(provider.PartMarker("tool-call", name)))
		case message.PartCitation:
			source := ""
			if part.Citation != nil {
				source = part.Citation.Source
			}
			blocks = append(blocks, anthropic.NewTextBlock(provider.PartMarker("citation", source)))
		case message.PartTempFile:
			name := ""
			if part.TempFile != nil {
				name = part.TempFile.Name
			}
			blocks = append(blocks, anthropic.NewTextBlock(provider.PartMarker("file", name)))
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropic.NewTextBlock(""))
	}
	return blocks
}

// flattenText flattens assistant content to text with markers for
// non-text parts.
func flattenText(msg message.Message) string {
	var out string
	for _, part := range msg.Content {
		if part.Type == message.PartText {
			out += part.Text
		} else {
			out += provider.PartMarker(string(part.Type), "")
		}
	}
	return out
}

// Ensure Client implements LLMProvider
var _ provider.LLMProvider = (*Client)(nil)
