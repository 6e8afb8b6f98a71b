package permission

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/opencode-ai/toolgate/internal/config"
	"github.com/opencode-ai/toolgate/internal/logging"
	"github.com/opencode-ai/toolgate/internal/tool"
)

// AskBehavior controls what a caller should do with an Ask result.
type AskBehavior int

const (
	// Interactive defers Ask results to a user prompt.
	Interactive AskBehavior = iota
	// DenyOnAsk converts Ask results to Deny for headless deployments.
	DenyOnAsk
)

// SettingsSource supplies the current permission settings. *config.Loader
// implements it; tests supply fixed settings.
type SettingsSource interface {
	Current() *config.Settings
}

// StaticSettings is a SettingsSource returning a fixed value.
type StaticSettings config.Settings

func (s *StaticSettings) Current() *config.Settings {
	return (*config.Settings)(s)
}

// internalToolPrefixes name MCP namespaces owned by the runtime itself;
// their tools never leave the process and are always permitted.
var internalToolPrefixes = []string{
	"mcp__agent_network__",
	"mcp__runtime__",
}

// metaTools are bookkeeping tools with no side effects outside the session.
var metaTools = map[string]bool{
	"TodoWrite":  true,
	"BashOutput": true,
	"KillShell":  true,
}

// hardcodedDeny blocks specific tools regardless of configuration, with the
// reason surfaced to the agent.
var hardcodedDeny = map[string]string{
	"mcp__browser__screenshot": "screenshot output floods the model context",
}

// writeTools are the tool names that benefit from the session cache. The
// restriction to write-type tools is deliberate: a remembered Bash pattern
// must not short-circuit later commands. See IsAllowedBySessionCache.
var writeTools = map[string]bool{
	"Write": true,
	"Edit":  true,
}

// Checker is the permission policy engine. It layers a fixed internal
// allowlist, a fixed deny list, the user's configured deny/ask/allow lists,
// the safe-command classifier, and a session cache into a single decision
// per tool-use event. CheckPermission is safe for concurrent use; the only
// shared mutable state is the append/clear-only session cache and the
// settings snapshot.
type Checker struct {
	source  SettingsSource
	matcher *Matcher
	cache   *SessionCache
	askMode AskBehavior

	disposeOnce sync.Once
}

// Option configures a Checker.
type Option func(*Checker)

// WithAskBehavior sets how Ask results should be treated by callers.
func WithAskBehavior(b AskBehavior) Option {
	return func(c *Checker) { c.askMode = b }
}

// WithMatcher replaces the default matcher (e.g. custom safe filters).
func WithMatcher(m *Matcher) Option {
	return func(c *Checker) { c.matcher = m }
}

// NewChecker creates a policy engine reading settings from source.
func NewChecker(source SettingsSource, opts ...Option) *Checker {
	c := &Checker{
		source:  source,
		matcher: NewMatcher(),
		cache:   NewSessionCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AskBehavior returns the configured ask-handling mode.
func (c *Checker) AskBehavior() AskBehavior {
	return c.askMode
}

// Settings returns the currently-effective settings snapshot.
func (c *Checker) Settings() *config.Settings {
	return c.source.Current()
}

// Matcher returns the checker's pattern matcher.
func (c *Checker) Matcher() *Matcher {
	return c.matcher
}

// CheckPermission decides whether a tool invocation may proceed. First match
// wins: internal allowlist, hardcoded deny, settings deny, settings ask,
// safe-command shortcut, settings allow, session cache (write tools only),
// then ask-user with an inferred pattern worth remembering.
func (c *Checker) CheckPermission(toolName string, input tool.Input, cwd string) Result {
	result := c.decide(toolName, input, cwd)
	logging.Debug().
		Str("tool", toolName).
		Str("decision", result.Decision.String()).
		Str("reason", result.Reason).
		Msg("permission check")
	return result
}

func (c *Checker) decide(toolName string, input tool.Input, cwd string) Result {
	if isInternalTool(toolName) {
		return allow("internal tool")
	}

	if reason, ok := hardcodedDeny[toolName]; ok {
		return deny("%s is always blocked: %s", toolName, reason)
	}

	settings := c.source.Current()
	ctx := MatchContext{CWD: cwd}

	for _, p := range settings.Permissions.Deny {
		if c.matcher.Matches(p, toolName, input, ctx) {
			return deny("matched deny list pattern %s", p)
		}
	}

	for _, p := range settings.Permissions.Ask {
		if c.matcher.Matches(p, toolName, input, ctx) {
			return askUser("matched ask list pattern "+p, c.InferPattern(toolName, input))
		}
	}

	if bash, ok := input.(tool.BashInput); ok && toolName == "Bash" {
		if IsSafeBashCommand(bash, ctx) {
			return allow("safe command")
		}
	}

	for _, p := range settings.Permissions.Allow {
		if c.matcher.Matches(p, toolName, input, ctx) {
			return allow("matched allow list pattern %s", p)
		}
	}

	if c.sessionCacheMatches(toolName, input, ctx) {
		return allow("session cache")
	}

	return askUser("no rule matched "+toolName, c.InferPattern(toolName, input))
}

// AddSessionPattern remembers an allow pattern for the rest of this
// checker's lifetime.
func (c *Checker) AddSessionPattern(pattern string) {
	c.cache.Add(pattern)
}

// ClearSessionCache forgets every remembered pattern.
func (c *Checker) ClearSessionCache() {
	c.cache.Clear()
}

// IsAllowedBySessionCache reports whether a remembered pattern covers the
// input. Only write-type tools (Write, Edit) consult the cache; a Bash
// invocation never matches here even when a Bash-shaped pattern was
// remembered.
func (c *Checker) IsAllowedBySessionCache(toolName string, input tool.Input) bool {
	return c.sessionCacheMatches(toolName, input, MatchContext{})
}

func (c *Checker) sessionCacheMatches(toolName string, input tool.Input, ctx MatchContext) bool {
	if !writeTools[toolName] {
		return false
	}
	for _, p := range c.cache.Patterns() {
		if c.matcher.Matches(p, toolName, input, ctx) {
			return true
		}
	}
	return false
}

// Dispose clears the session cache. Idempotent.
func (c *Checker) Dispose() {
	c.disposeOnce.Do(func() {
		c.cache.Clear()
	})
}

// InferPattern builds the default rule an approving user would want
// remembered for this invocation: the base command for Bash, the containing
// directory for file tools, the host for WebFetch. Empty when the input has
// nothing to anchor a rule on.
func (c *Checker) InferPattern(toolName string, input tool.Input) string {
	switch in := input.(type) {
	case tool.BashInput:
		base := inferBashBase(in.Command)
		if base == "" {
			return ""
		}
		return "Bash(" + base + ":*)"
	case tool.ReadInput, tool.WriteInput, tool.EditInput:
		path, _ := tool.FilePathOf(input)
		if path == "" {
			return ""
		}
		return toolName + "(" + filepath.Dir(filepath.Clean(path)) + "/**)"
	case tool.WebFetchInput:
		host := hostOf(in.URL)
		if host == "" {
			return ""
		}
		return "WebFetch(domain:" + host + ")"
	case tool.WebSearchInput:
		return "WebSearch"
	case tool.UnknownInput:
		return in.ToolName
	}
	return ""
}

// subcommandPrefixes are commands whose first subcommand belongs in an
// inferred pattern ("git push" rather than all of "git").
var subcommandPrefixes = map[string]bool{
	"git": true, "npm": true, "go": true, "cargo": true, "dart": true,
	"pip": true, "docker": true, "kubectl": true, "yarn": true, "pnpm": true,
}

func inferBashBase(command string) string {
	for _, segment := range SplitTopLevel(command) {
		if _, _, isCd := SplitLeadingCd(segment); isCd {
			continue
		}
		cmd := ParseSegment(segment)
		if cmd.Name == "" {
			return ""
		}
		if subcommandPrefixes[cmd.Name] && cmd.Subcommand != "" {
			return cmd.Name + " " + cmd.Subcommand
		}
		return cmd.Name
	}
	return ""
}

func isInternalTool(toolName string) bool {
	if metaTools[toolName] {
		return true
	}
	for _, prefix := range internalToolPrefixes {
		if strings.HasPrefix(toolName, prefix) {
			return true
		}
	}
	return false
}
