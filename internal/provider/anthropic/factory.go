package anthropic

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/driftlabs/drift/internal/provider"
)

// newFromConfig creates an Anthropic provider bound to a model configuration.
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

	client := anthropic.NewClient(opts...)
	return NewClient(client, "anthropic:"+cfg.ID), nil
}

// init registers the provider factory.
func init() {
	provider.Register(provider.KindAnthropic, newFromConfig)
}
