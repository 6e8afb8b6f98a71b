package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()
	claudeDir := filepath.Join(dir, ".claude")
	require.NoError(t, os.MkdirAll(claudeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(claudeDir, name), []byte(content), 0o644))
}

func TestLoad_ProjectSettings(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeSettings(t, dir, "settings.local.json", `{
		"permissions": {
			"allow": ["Bash(git:*)", "Read(/proj/**)"],
			"deny": ["Bash(rm:*)"]
		}
	}`)

	s := Load(dir)
	assert.Equal(t, []string{"Bash(git:*)", "Read(/proj/**)"}, s.Permissions.Allow)
	assert.Equal(t, []string{"Bash(rm:*)"}, s.Permissions.Deny)
	assert.Empty(t, s.Permissions.Ask)
}

func TestLoad_MergesLocalAndShared(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "settings.local.json", `{"permissions": {"allow": ["Bash(go:*)"]}}`)
	writeSettings(t, dir, "settings.json", `{"permissions": {"deny": ["WebFetch"]}}`)

	s := Load(dir)
	assert.Contains(t, s.Permissions.Allow, "Bash(go:*)")
	assert.Contains(t, s.Permissions.Deny, "WebFetch")
}

func TestLoad_ToleratesCommentsAndTrailingCommas(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeSettings(t, dir, "settings.local.json", `{
		// hand-edited
		"permissions": {
			"allow": [
				"Bash(npm run:*)",
			],
		},
	}`)

	s := Load(dir)
	assert.Equal(t, []string{"Bash(npm run:*)"}, s.Permissions.Allow)
}

func TestLoad_MalformedFileYieldsEmptyLists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeSettings(t, dir, "settings.local.json", `{"permissions": [not json`)

	s := Load(dir)
	assert.Empty(t, s.Permissions.Allow)
	assert.Empty(t, s.Permissions.Deny)
}

func TestLoad_MissingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s := Load(filepath.Join(t.TempDir(), "nope"))
	assert.NotNil(t, s)
	assert.Empty(t, s.Permissions.Allow)
}

func TestLoader_ReflectsOnDiskEdits(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	writeSettings(t, dir, "settings.local.json", `{"permissions": {"allow": ["Bash(git:*)"]}}`)

	l := NewLoader(dir)
	defer l.Close()

	s := l.Current()
	require.Equal(t, []string{"Bash(git:*)"}, s.Permissions.Allow)

	writeSettings(t, dir, "settings.local.json", `{"permissions": {"allow": ["Bash(go:*)"]}}`)
	l.Invalidate()

	s = l.Current()
	assert.Equal(t, []string{"Bash(go:*)"}, s.Permissions.Allow)
}

func TestLoader_CloseIdempotent(t *testing.T) {
	l := NewLoader(t.TempDir())
	l.Close()
	l.Close()
}
