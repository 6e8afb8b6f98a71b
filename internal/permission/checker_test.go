package permission

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/toolgate/internal/config"
	"github.com/opencode-ai/toolgate/internal/tool"
)

func newChecker(perms config.Permissions, opts ...Option) *Checker {
	return NewChecker(&StaticSettings{Permissions: perms}, opts...)
}

func check(c *Checker, toolName string, args map[string]any, cwd string) Result {
	return c.CheckPermission(toolName, tool.ParseInput(toolName, args), cwd)
}

func TestChecker_SafeCommandShortcut(t *testing.T) {
	c := newChecker(config.Permissions{})

	result := check(c, "Bash", map[string]any{"command": "ls -la"}, "/project")
	assert.Equal(t, Allow, result.Decision)
	assert.Contains(t, result.Reason, "safe")
}

func TestChecker_DenyBeatsAllow(t *testing.T) {
	c := newChecker(config.Permissions{
		Allow: []string{"Bash(*)"},
		Deny:  []string{"Bash(rm:*)"},
	})

	result := check(c, "Bash", map[string]any{"command": "rm -rf /"}, "/project")
	assert.Equal(t, Deny, result.Decision)
	assert.Contains(t, result.Reason, "Bash(rm:*)")
}

func TestChecker_DenyBeatsSafeShortcut(t *testing.T) {
	c := newChecker(config.Permissions{Deny: []string{"Bash(ls:*)"}})

	result := check(c, "Bash", map[string]any{"command": "ls -la"}, "/project")
	assert.Equal(t, Deny, result.Decision)
}

func TestChecker_AllowListMatch(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"Bash(dart pub:*)"}})

	result := check(c, "Bash", map[string]any{"command": "cd /project/sub && dart pub get"}, "/project")
	assert.Equal(t, Allow, result.Decision)
	assert.Contains(t, result.Reason, "Bash(dart pub:*)")
}

func TestChecker_CdEscapeFallsThroughToAsk(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"Bash(dart pub:*)"}})

	result := check(c, "Bash", map[string]any{"command": "cd /other && dart pub get"}, "/project")
	assert.Equal(t, Ask, result.Decision)
}

func TestChecker_AskListForcesPrompt(t *testing.T) {
	// Ask beats both the safe-command shortcut and the allow list.
	c := newChecker(config.Permissions{
		Allow: []string{"Bash(*)"},
		Ask:   []string{"Bash(git:*)"},
	})

	result := check(c, "Bash", map[string]any{"command": "git status"}, "/project")
	assert.Equal(t, Ask, result.Decision)
	assert.Contains(t, result.Reason, "Bash(git:*)")
}

func TestChecker_InternalTools(t *testing.T) {
	c := newChecker(config.Permissions{Deny: []string{"*"}})

	for _, name := range []string{"TodoWrite", "BashOutput", "KillShell", "mcp__runtime__status", "mcp__agent_network__send"} {
		result := check(c, name, map[string]any{}, "/project")
		assert.Equal(t, Allow, result.Decision, name)
		assert.Contains(t, result.Reason, "internal", name)
	}
}

func TestChecker_HardcodedDeny(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"*"}})

	result := check(c, "mcp__browser__screenshot", map[string]any{}, "/project")
	assert.Equal(t, Deny, result.Decision)
	assert.Contains(t, result.Reason, "context")
}

func TestChecker_DefaultAsksWithInferredPattern(t *testing.T) {
	c := newChecker(config.Permissions{})

	tests := []struct {
		toolName string
		args     map[string]any
		pattern  string
	}{
		{"Bash", map[string]any{"command": "make build"}, "Bash(make:*)"},
		{"Bash", map[string]any{"command": "git push origin main"}, "Bash(git push:*)"},
		{"Bash", map[string]any{"command": "cd sub && make"}, "Bash(make:*)"},
		{"Write", map[string]any{"file_path": "/proj/lib/main.dart"}, "Write(/proj/lib/**)"},
		{"Edit", map[string]any{"file_path": "/proj/a.go"}, "Edit(/proj/**)"},
		{"Read", map[string]any{"file_path": "/etc/passwd"}, "Read(/etc/**)"},
		{"WebFetch", map[string]any{"url": "https://api.pub.dev/packages"}, "WebFetch(domain:api.pub.dev)"},
		{"WebSearch", map[string]any{"query": "x"}, "WebSearch"},
		{"mcp__gh__issue", map[string]any{}, "mcp__gh__issue"},
	}

	for _, tt := range tests {
		result := check(c, tt.toolName, tt.args, "/project")
		require.Equal(t, Ask, result.Decision, tt.toolName)
		assert.Equal(t, tt.pattern, result.InferredPattern)
	}
}

func TestChecker_MalformedInputNeverAllows(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"Bash(*)", "Write(/**)"}})

	// No command on Bash: no pattern can match, classifier says unsafe.
	result := check(c, "Bash", map[string]any{}, "/project")
	assert.Equal(t, Ask, result.Decision)

	// No path on Write.
	result = check(c, "Write", map[string]any{"content": "x"}, "/project")
	assert.Equal(t, Ask, result.Decision)
}

func TestChecker_SessionCache(t *testing.T) {
	c := newChecker(config.Permissions{})

	c.AddSessionPattern("Write(/proj/**)")

	result := check(c, "Write", map[string]any{"file_path": "/proj/lib/main.dart"}, "/proj")
	assert.Equal(t, Allow, result.Decision)
	assert.Contains(t, result.Reason, "session cache")

	// Edit benefits from a remembered Edit pattern too.
	c.AddSessionPattern("Edit(/proj/**)")
	result = check(c, "Edit", map[string]any{"file_path": "/proj/a.go"}, "/proj")
	assert.Equal(t, Allow, result.Decision)
}

func TestChecker_SessionCacheScopeRestriction(t *testing.T) {
	// Remembered patterns only benefit write-type tools; a Bash pattern in
	// the cache never short-circuits a Bash check.
	c := newChecker(config.Permissions{})
	c.AddSessionPattern("Bash(make:*)")

	result := check(c, "Bash", map[string]any{"command": "make build"}, "/proj")
	assert.Equal(t, Ask, result.Decision)
	assert.False(t, c.IsAllowedBySessionCache("Bash", tool.BashInput{Command: "make build"}))

	assert.False(t, c.IsAllowedBySessionCache("Write", tool.WriteInput{FilePath: "/proj/x"}))
	c.AddSessionPattern("Write(/proj/**)")
	assert.True(t, c.IsAllowedBySessionCache("Write", tool.WriteInput{FilePath: "/proj/x"}))
}

func TestChecker_ClearSessionCache(t *testing.T) {
	c := newChecker(config.Permissions{})
	c.AddSessionPattern("Write(/proj/**)")
	require.True(t, c.IsAllowedBySessionCache("Write", tool.WriteInput{FilePath: "/proj/x"}))

	c.ClearSessionCache()
	assert.False(t, c.IsAllowedBySessionCache("Write", tool.WriteInput{FilePath: "/proj/x"}))
}

func TestChecker_DisposeIdempotent(t *testing.T) {
	c := newChecker(config.Permissions{})
	c.AddSessionPattern("Write(/proj/**)")

	c.Dispose()
	assert.False(t, c.IsAllowedBySessionCache("Write", tool.WriteInput{FilePath: "/proj/x"}))
	c.Dispose()
}

func TestChecker_TraversalNeverAllowed(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"Read(/proj/**)"}})

	for _, path := range []string{"/proj/../etc/passwd", "/proj/%2e%2e/etc/passwd"} {
		result := check(c, "Read", map[string]any{"file_path": path}, "/proj")
		assert.NotEqual(t, Allow, result.Decision, path)
	}
}

func TestChecker_ConcurrentChecks(t *testing.T) {
	c := newChecker(config.Permissions{Allow: []string{"Bash(git:*)"}})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := check(c, "Bash", map[string]any{"command": "git status"}, "/proj")
			assert.Equal(t, Allow, r.Decision)
			c.AddSessionPattern("Write(/proj/**)")
		}()
	}
	wg.Wait()
}

func TestChecker_SettingsReloadVisible(t *testing.T) {
	settings := &StaticSettings{}
	c := NewChecker(settings)

	result := check(c, "Bash", map[string]any{"command": "make"}, "/proj")
	require.Equal(t, Ask, result.Decision)

	settings.Permissions.Allow = []string{"Bash(make:*)"}
	result = check(c, "Bash", map[string]any{"command": "make"}, "/proj")
	assert.Equal(t, Allow, result.Decision)
}
