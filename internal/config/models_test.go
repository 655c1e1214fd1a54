package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModels(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModelsSortsByCreatedAt(t *testing.T) {
	path := writeModels(t, `
models:
  - id: newer
    provider: openai
    model: gpt-5
    createdAt: 2025-06-01T00:00:00Z
  - id: older
    provider: anthropic
    model: claude-sonnet-4-5
    apiKeyEnv: ANTHROPIC_API_KEY
    capabilities:
      supportsReasoning: true
    params:
      temperature: 0.7
      maxTokens: 4096
    createdAt: 2025-01-01T00:00:00Z
`)

	models, err := LoadModels(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID != "older" {
		t.Errorf("expected createdAt ordering, got %s first", models[0].ID)
	}

	older := models[0]
	if !older.Caps.SupportsReasoning {
		t.Error("capabilities not parsed")
	}
	if older.Params.Temperature == nil || *older.Params.Temperature != 0.7 {
		t.Errorf("temperature not parsed as explicitly set: %+v", older.Params)
	}
	if older.Params.TopP != nil {
		t.Error("unset parameters must stay nil")
	}
	if older.Params.MaxTokens != 4096 {
		t.Errorf("maxTokens not parsed: %d", older.Params.MaxTokens)
	}
}

func TestLoadModelsRejectsDuplicateIDs(t *testing.T) {
	path := writeModels(t, `
models:
  - id: dup
    provider: openai
    model: a
  - id: dup
    provider: openai
    model: b
`)

	if _, err := LoadModels(path); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestLoadModelsRejectsMissingFields(t *testing.T) {
	for name, yaml := range map[string]string{
		"missing id":    "models:\n  - provider: openai\n    model: gpt-5\n",
		"missing model": "models:\n  - id: x\n    provider: openai\n",
	} {
		path := writeModels(t, yaml)
		if _, err := LoadModels(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadModelsMissingFile(t *testing.T) {
	if _, err := LoadModels(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
