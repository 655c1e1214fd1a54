package openai

import (
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/driftlabs/drift/internal/provider"
)

// newFromConfig creates an OpenAI provider bound to a model configuration.
// A BaseURL switches the client to an OpenAI-compatible endpoint.
func newFromConfig(cfg provider.ModelConfig) (provider.LLMProvider, error) {
	opts := []option.RequestOption{}

	if cfg.APIKeyEnv != "" {
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing credential: %s is not set", cfg.APIKeyEnv)
		}
		opts = append(opts, option.WithAPIKey(key))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return NewClient(client, "openai:"+cfg.ID), nil
}

// init registers the provider factory.
func init() {
	provider.Register(provider.KindOpenAI, newFromConfig)
}
