package provider

import (
	"context"
)

// Complete collects stream chunks into a complete response. This provides
// non-streaming output from any LLMProvider, used for utility generations
// such as structured responses and conversation titles.
func Complete(ctx context.Context, p LLMProvider, opts CompletionOptions) (CompletionResponse, error) {
	var response CompletionResponse

	for chunk := range p.Stream(ctx, opts) {
		switch chunk.Type {
		case ChunkTypeText:
			response.Content += chunk.Text
		case ChunkTypeReasoning:
			response.Reasoning += chunk.Text
		case ChunkTypeDone:
			if chunk.Response != nil {
				final := *chunk.Response
				if final.Content == "" {
					final.Content = response.Content
				}
				if final.Reasoning == "" {
					final.Reasoning = response.Reasoning
				}
				return final, nil
			}
			return response, nil
		case ChunkTypeError:
			return response, chunk.Error
		}
	}

	return response, nil
}
