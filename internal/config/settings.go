// Package config provides multi-level settings management for Drift.
// Settings are loaded from multiple sources with the following priority
// (lowest to highest):
//  1. ~/.drift/settings.json (user level)
//  2. .drift/settings.json (project level)
//  3. .drift/settings.local.json (local level)
//
// Later sources override earlier ones.
package config

// Settings represents the complete Drift configuration.
type Settings struct {
	// DefaultModelID is the user's default model. Updated automatically
	// when resolution falls through to the system default.
	DefaultModelID string `json:"defaultModelId,omitempty"`

	// SystemPrompt is prepended to every generation when set.
	SystemPrompt string `json:"systemPrompt,omitempty"`

	// ModelsFile overrides the model registry location
	// (default ~/.drift/models.yaml).
	ModelsFile string `json:"modelsFile,omitempty"`

	// Env defines environment variables to set at startup, typically the
	// API key variables the model registry references.
	Env map[string]string `json:"env,omitempty"`
}

// NewSettings creates a Settings instance with default values.
func NewSettings() *Settings {
	return &Settings{
		Env: make(map[string]string),
	}
}

// MergeSettings overlays override onto base. Scalar fields in override win
// when non-empty; map entries merge key by key.
func MergeSettings(base, override *Settings) *Settings {
	if base == nil {
		base = NewSettings()
	}
	if override == nil {
		return base
	}

	merged := *base
	if override.DefaultModelID != "" {
		merged.DefaultModelID = override.DefaultModelID
	}
	if override.SystemPrompt != "" {
		merged.SystemPrompt = override.SystemPrompt
	}
	if override.ModelsFile != "" {
		merged.ModelsFile = override.ModelsFile
	}
	if len(override.Env) > 0 {
		env := make(map[string]string, len(base.Env)+len(override.Env))
		for k, v := range base.Env {
			env[k] = v
		}
		for k, v := range override.Env {
			env[k] = v
		}
		merged.Env = env
	}
	return &merged
}
