// Package config loads the permission settings the engine consults on every
// check. Settings live in user-edited JSON files; parsing is tolerant of
// comments and trailing commas, and a broken file degrades to empty lists
// rather than failing a tool-use decision.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/opencode-ai/toolgate/internal/logging"
)

// Permissions holds the user-configured rule lists. Rules are permission
// pattern strings, e.g. "Bash(git:*)" or "Read(/proj/**)".
type Permissions struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
	Ask   []string `json:"ask,omitempty"`
}

// Settings is the parsed settings file content.
type Settings struct {
	Permissions Permissions `json:"permissions"`
}

// settingsFiles returns the candidate file paths for a project directory,
// most specific first. Lists from all existing files are unioned; order only
// affects log output since deny always beats allow regardless of source.
func settingsFiles(directory string) []string {
	var paths []string
	if directory != "" {
		paths = append(paths,
			filepath.Join(directory, ".claude", "settings.local.json"),
			filepath.Join(directory, ".claude", "settings.json"),
		)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".claude", "settings.json"))
	}
	return paths
}

// Load reads and merges all settings files for a project directory. Missing
// files are skipped; unparseable files contribute empty lists and a warning.
// The returned Settings is a fresh value, safe to hold across a check.
func Load(directory string) *Settings {
	merged := &Settings{}
	for _, path := range settingsFiles(directory) {
		s, err := loadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warn().Err(err).Str("path", path).Msg("ignoring unreadable settings file")
			}
			continue
		}
		merged.Permissions.Allow = append(merged.Permissions.Allow, s.Permissions.Allow...)
		merged.Permissions.Deny = append(merged.Permissions.Deny, s.Permissions.Deny...)
		merged.Permissions.Ask = append(merged.Permissions.Ask, s.Permissions.Ask...)
	}
	return merged
}

func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Users hand-edit these files; tolerate comments and trailing commas.
	data = jsonc.ToJSON(data)

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
