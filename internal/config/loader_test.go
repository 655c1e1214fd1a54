package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, path string, s *Settings) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMergesLevelsInPriorityOrder(t *testing.T) {
	userDir := t.TempDir()
	projectDir := t.TempDir()
	loader := NewLoaderWithOptions(userDir, projectDir)

	writeSettings(t, filepath.Join(userDir, "settings.json"), &Settings{
		DefaultModelID: "user-model",
		SystemPrompt:   "be brief",
		Env:            map[string]string{"OPENAI_API_KEY": "from-user", "SHARED": "user"},
	})
	writeSettings(t, filepath.Join(projectDir, "settings.json"), &Settings{
		DefaultModelID: "project-model",
		Env:            map[string]string{"SHARED": "project"},
	})
	writeSettings(t, filepath.Join(projectDir, "settings.local.json"), &Settings{
		DefaultModelID: "local-model",
	})

	settings, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}

	if settings.DefaultModelID != "local-model" {
		t.Errorf("local level should win: %q", settings.DefaultModelID)
	}
	// Fields unset at higher levels keep lower-level values.
	if settings.SystemPrompt != "be brief" {
		t.Errorf("user-level prompt lost: %q", settings.SystemPrompt)
	}
	if settings.Env["OPENAI_API_KEY"] != "from-user" {
		t.Errorf("env entries should merge: %v", settings.Env)
	}
	if settings.Env["SHARED"] != "project" {
		t.Errorf("env collisions should take the higher level: %v", settings.Env)
	}
}

func TestLoadToleratesMissingAndMalformedFiles(t *testing.T) {
	userDir := t.TempDir()
	projectDir := t.TempDir()
	loader := NewLoaderWithOptions(userDir, projectDir)

	if err := os.WriteFile(filepath.Join(projectDir, "settings.json"), []byte("{oops"), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := loader.Load()
	if err != nil {
		t.Fatalf("load should not fail on bad sources: %v", err)
	}
	if settings.DefaultModelID != "" {
		t.Errorf("expected defaults, got %+v", settings)
	}
}

func TestSaveUserDefaultModelMergesExisting(t *testing.T) {
	userDir := t.TempDir()
	loader := NewLoaderWithOptions(userDir, t.TempDir())

	writeSettings(t, filepath.Join(userDir, "settings.json"), &Settings{
		SystemPrompt: "keep me",
	})

	if err := loader.SaveUserDefaultModel("adopted"); err != nil {
		t.Fatal(err)
	}

	saved, err := loader.LoadFile(filepath.Join(userDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.DefaultModelID != "adopted" {
		t.Errorf("default model not saved: %q", saved.DefaultModelID)
	}
	if saved.SystemPrompt != "keep me" {
		t.Errorf("existing settings clobbered: %+v", saved)
	}
}

func TestMergeSettingsNilSafety(t *testing.T) {
	merged := MergeSettings(nil, nil)
	if merged == nil {
		t.Fatal("expected defaults")
	}

	merged = MergeSettings(nil, &Settings{DefaultModelID: "x"})
	if merged.DefaultModelID != "x" {
		t.Errorf("override lost: %+v", merged)
	}
}
