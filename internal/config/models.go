package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/driftlabs/drift/internal/provider"
)

// modelsFile is the YAML shape of the model registry.
type modelsFile struct {
	Models []provider.ModelConfig `yaml:"models"`
}

// DefaultModelsPath returns the default model registry location,
// ~/.drift/models.yaml.
func DefaultModelsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".drift", "models.yaml")
}

// LoadModels reads the model registry and returns the configured models
// sorted by CreatedAt then id, the order the resolver's system-default
// fallback depends on.
func LoadModels(path string) ([]provider.ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}

	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}

	if err := validateModels(file.Models); err != nil {
		return nil, err
	}

	models := file.Models
	sort.SliceStable(models, func(i, j int) bool {
		if !models[i].CreatedAt.Equal(models[j].CreatedAt) {
			return models[i].CreatedAt.Before(models[j].CreatedAt)
		}
		return models[i].ID < models[j].ID
	})

	return models, nil
}

// validateModels rejects entries the rest of the system cannot act on.
func validateModels(models []provider.ModelConfig) error {
	seen := make(map[string]bool, len(models))
	kinds := make(map[provider.Kind]bool)
	for _, k := range provider.Kinds() {
		kinds[k] = true
	}

	for i, m := range models {
		if m.ID == "" {
			return fmt.Errorf("model %d: missing id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("model %q: duplicate id", m.ID)
		}
		seen[m.ID] = true

		if m.Model == "" {
			return fmt.Errorf("model %q: missing model name", m.ID)
		}
		if len(kinds) > 0 && !kinds[m.Provider] {
			return fmt.Errorf("model %q: unknown provider %q", m.ID, m.Provider)
		}
	}
	return nil
}
