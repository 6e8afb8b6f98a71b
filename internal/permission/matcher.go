package permission

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/opencode-ai/toolgate/internal/tool"
)

// MatchContext carries per-check context for pattern matching. CWD anchors
// cd-target validation and relative path resolution; when empty, cd targets
// are unconstrained and relative paths are matched as given.
type MatchContext struct {
	CWD string
}

// defaultSafeFilters are commands that only filter or measure the stream fed
// to them. In a pipeline they are compatible with any pattern as long as
// another segment explicitly matches; they never carry a match on their own.
var defaultSafeFilters = []string{
	"grep", "egrep", "fgrep", "wc", "head", "tail", "sort", "uniq", "cut", "tr", "awk",
}

// Matcher evaluates permission rule strings against typed tool inputs.
// A rule is a tool-name matcher with an optional argument clause, e.g.
// "Bash(git:*)", "Read(/proj/**)", "WebFetch(domain:github.com)",
// "mcp__server__.*" or "*". Matching fails closed: any rule the matcher
// cannot interpret matches nothing.
type Matcher struct {
	safeFilters map[string]bool
}

// NewMatcher creates a matcher with the default safe-filter set.
func NewMatcher() *Matcher {
	m := &Matcher{}
	m.SetSafeFilters(defaultSafeFilters)
	return m
}

// SetSafeFilters replaces the safe-filter command set used for pipeline
// matching.
func (m *Matcher) SetSafeFilters(names []string) {
	filters := make(map[string]bool, len(names))
	for _, n := range names {
		filters[n] = true
	}
	m.safeFilters = filters
}

// Matches reports whether a rule matches a tool invocation. The rule's
// tool-name component gates first; the argument clause is then interpreted
// per tool family.
func (m *Matcher) Matches(pattern, toolName string, input tool.Input, ctx MatchContext) bool {
	rule, ok := parseRule(pattern)
	if !ok {
		return false
	}
	if !rule.matchesToolName(toolName) {
		return false
	}

	switch in := input.(type) {
	case tool.BashInput:
		return m.matchesBash(rule, in, ctx)
	case tool.ReadInput, tool.WriteInput, tool.EditInput:
		path, _ := tool.FilePathOf(input)
		return matchesPath(rule, path, ctx)
	case tool.WebFetchInput:
		return matchesWebFetch(rule, in)
	case tool.WebSearchInput:
		return matchesWebSearch(rule, in)
	case tool.UnknownInput:
		// MCP and unknown tool rules are name-only; a clause cannot be
		// evaluated against an untyped input.
		return !rule.hasClause
	default:
		return false
	}
}

// parsedRule is a rule split into its tool-name component and argument
// clause. "Bash(git:*)" -> {namePart: "Bash", clause: "git:*"}.
type parsedRule struct {
	namePart  string
	clause    string
	hasClause bool
}

func parseRule(pattern string) (parsedRule, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return parsedRule{}, false
	}

	idx := strings.Index(pattern, "(")
	if idx < 0 {
		return parsedRule{namePart: pattern}, true
	}
	if !strings.HasSuffix(pattern, ")") || idx == 0 {
		return parsedRule{}, false
	}
	return parsedRule{
		namePart:  pattern[:idx],
		clause:    pattern[idx+1 : len(pattern)-1],
		hasClause: true,
	}, true
}

func (r parsedRule) matchesToolName(toolName string) bool {
	if r.namePart == "*" {
		return true
	}
	re, err := regexp.Compile("^(?:" + r.namePart + ")$")
	if err != nil {
		// Not a valid regex; fall back to exact comparison.
		return r.namePart == toolName
	}
	return re.MatchString(toolName)
}

// matchesBash evaluates the rule against a shell command. The command is
// split into top-level segments; every segment must independently satisfy
// the clause, with two exceptions: cd segments are exempt from the clause
// but must stay under the working directory, and safe-filter segments ride
// along once some other segment explicitly matches.
func (m *Matcher) matchesBash(rule parsedRule, in tool.BashInput, ctx MatchContext) bool {
	if in.Command == "" {
		return false
	}
	if !rule.hasClause {
		return true
	}
	if rule.clause == "" {
		// "Bash()" matches only an empty command, which is rejected above.
		return false
	}

	segments := SplitTopLevel(in.Command)
	if len(segments) == 0 {
		return false
	}

	effectiveDir := ctx.CWD
	anyExplicit := false

	for _, segment := range segments {
		if target, _, isCd := SplitLeadingCd(segment); isCd {
			if ctx.CWD == "" {
				continue
			}
			resolved, ok := resolveCdTarget(target, effectiveDir)
			if !ok || !isWithinDir(resolved, ctx.CWD) {
				return false
			}
			effectiveDir = resolved
			continue
		}

		if clauseMatchesSegment(rule.clause, segment) {
			anyExplicit = true
			continue
		}
		if m.safeFilters[ParseSegment(segment).Name] {
			continue
		}
		return false
	}

	return anyExplicit
}

// clauseMatchesSegment tests one non-cd segment against a Bash argument
// clause: "*" matches all, "prefix:*" matches a command starting with that
// word prefix, anything else is tried as an anchored regex.
func clauseMatchesSegment(clause, segment string) bool {
	if clause == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(clause, ":*"); ok {
		return segment == prefix || strings.HasPrefix(segment, prefix+" ")
	}
	re, err := regexp.Compile("^(?:" + clause + ")$")
	if err != nil {
		return false
	}
	return re.MatchString(segment)
}

// matchesPath evaluates a Read/Write/Edit rule against a file path. The
// path is percent-decoded and lexically normalized before matching, and
// must stay under the static root of the rule's glob: a traversal that
// escapes the root never matches, however the raw string reads.
func matchesPath(rule parsedRule, path string, ctx MatchContext) bool {
	if path == "" {
		return false
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	if !filepath.IsAbs(path) && ctx.CWD != "" {
		path = filepath.Join(ctx.CWD, path)
	}
	path = filepath.Clean(path)

	if !rule.hasClause {
		return true
	}
	if rule.clause == "" {
		// "Read()" matches only an empty path, which is rejected above.
		return false
	}
	if rule.clause == "*" {
		return true
	}

	clause := rule.clause
	if !filepath.IsAbs(clause) && ctx.CWD != "" {
		clause = filepath.Join(ctx.CWD, clause)
	}

	if root := globRoot(clause); root != "" && !isWithinDir(path, root) {
		return false
	}

	matched, err := doublestar.Match(clause, path)
	if err != nil {
		return false
	}
	return matched
}

// globRoot returns the static directory prefix of a glob pattern, e.g.
// "/proj/lib/**" -> "/proj/lib". Empty when the pattern has no static root.
func globRoot(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return filepath.Dir(pattern)
	}
	root := pattern[:idx]
	slash := strings.LastIndex(root, "/")
	if slash <= 0 {
		return ""
	}
	return root[:slash]
}

// matchesWebFetch evaluates a WebFetch rule: "domain:<host>" matches the
// exact host or any strict subdomain of it (dot-boundary check).
func matchesWebFetch(rule parsedRule, in tool.WebFetchInput) bool {
	if in.URL == "" {
		return false
	}
	if !rule.hasClause {
		return true
	}
	if rule.clause == "*" {
		return true
	}
	domain, ok := strings.CutPrefix(rule.clause, "domain:")
	if !ok {
		return false
	}
	host := hostOf(in.URL)
	if host == "" || domain == "" {
		return false
	}
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// matchesWebSearch evaluates a WebSearch rule: "query:<regex>" matches the
// query field; a bare rule or "*" matches any non-empty query.
func matchesWebSearch(rule parsedRule, in tool.WebSearchInput) bool {
	if in.Query == "" {
		return false
	}
	if !rule.hasClause || rule.clause == "*" {
		return true
	}
	pattern, ok := strings.CutPrefix(rule.clause, "query:")
	if !ok {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(in.Query)
}

// hostOf extracts the lowercase hostname from a URL, tolerating a missing
// scheme ("example.com/path").
func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
