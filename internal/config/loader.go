package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Loader handles loading and merging settings from multiple sources.
type Loader struct {
	// userDir is the user-level config directory (e.g., ~/.drift)
	userDir string

	// projectDir is the project-level config directory (e.g., .drift)
	projectDir string
}

// NewLoader creates a settings loader with the default directories.
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		userDir:    filepath.Join(homeDir, ".drift"),
		projectDir: ".drift",
	}
}

// NewLoaderWithOptions creates a loader with custom directories.
func NewLoaderWithOptions(userDir, projectDir string) *Loader {
	return &Loader{
		userDir:    userDir,
		projectDir: projectDir,
	}
}

// Load loads and merges settings from all sources, lowest priority first.
// Missing or malformed files are skipped.
func (l *Loader) Load() (*Settings, error) {
	settings := NewSettings()

	sources := []string{
		filepath.Join(l.userDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.json"),
		filepath.Join(l.projectDir, "settings.local.json"),
	}

	for _, src := range sources {
		if data, err := os.ReadFile(src); err == nil {
			var s Settings
			if err := json.Unmarshal(data, &s); err == nil {
				settings = MergeSettings(settings, &s)
			}
		}
	}

	return settings, nil
}

// LoadFile loads settings from a specific file.
func (l *Loader) LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// UserDir returns the user config directory path.
func (l *Loader) UserDir() string {
	return l.userDir
}

// ProjectDir returns the project config directory path.
func (l *Loader) ProjectDir() string {
	return l.projectDir
}

// SaveToUser saves settings to the user-level settings file, merging with
// existing content.
func (l *Loader) SaveToUser(settings *Settings) error {
	return l.saveToFile(filepath.Join(l.userDir, "settings.json"), settings)
}

// SaveToProject saves settings to the project-level settings file, merging
// with existing content.
func (l *Loader) SaveToProject(settings *Settings) error {
	return l.saveToFile(filepath.Join(l.projectDir, "settings.json"), settings)
}

// saveToFile saves settings to a specific file, merging with existing content.
func (l *Loader) saveToFile(path string, settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var existing *Settings
	if data, err := os.ReadFile(path); err == nil {
		existing = NewSettings()
		if err := json.Unmarshal(data, existing); err != nil {
			existing = nil
		}
	}

	toSave := settings
	if existing != nil {
		toSave = MergeSettings(existing, settings)
	}

	data, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveUserDefaultModel persists the adopted default model id at user level.
// Called when resolution fell through to the system default.
func (l *Loader) SaveUserDefaultModel(modelID string) error {
	return l.SaveToUser(&Settings{DefaultModelID: modelID})
}
