// Package permission decides, for every tool invocation an agent attempts,
// whether to auto-allow it, auto-deny it, or defer to interactive user
// approval.
//
// # Decision chain
//
// Checker.CheckPermission layers its policies in a fixed order, first match
// winning:
//
//  1. Internal allowlist: runtime-owned MCP namespaces and side-effect-free
//     meta tools (TodoWrite, BashOutput, KillShell).
//  2. Hardcoded deny list: tools blocked regardless of configuration.
//  3. Settings deny list: an explicit deny always wins, including over the
//     user's own allow list and the safe-command shortcut.
//  4. Settings ask list: forces a prompt even for otherwise-safe commands.
//  5. Safe-command shortcut: IsSafeBashCommand approves routine read-only
//     shell commands with no configuration at all.
//  6. Settings allow list.
//  7. Session cache: patterns remembered via "always" answers, consulted
//     for write-type tools only.
//  8. Default: ask the user, carrying an inferred pattern suitable for
//     "remember this".
//
// # Rule syntax
//
// Rules are strings persisted in the user's settings file, so their syntax
// is a wire format:
//
//	Bash(git:*)                    commands starting with "git"
//	Bash(dart pub:*)               commands starting with "dart pub"
//	Read(/proj/**)                 any path under /proj
//	Write(/proj/src/*)             one directory level
//	WebFetch(domain:github.com)    host or any subdomain
//	WebSearch(query:^docs )        query regex
//	mcp__server__.*                tool-name regex, no argument clause
//	*                              everything
//
// Matching fails closed: a rule the matcher cannot interpret matches
// nothing, empty file paths never match, and a path whose normalized form
// (including percent-decoded traversal) escapes the rule's glob root never
// matches however the raw string reads.
//
// # Shell command analysis
//
// Commands are split into top-level segments along &&, ||, ; and unquoted
// pipes. Every segment must independently satisfy a Bash rule; cd segments
// are instead validated to stay under the working directory, and recognized
// stream filters (grep, wc, sort, ...) ride along in pipelines once another
// segment explicitly matches. Segment internals are parsed with mvdan.cc/sh
// so redirections and command substitution are detected structurally rather
// than by substring.
//
// # Blocking approvals
//
// Gate parks an Ask decision on a channel, publishes approval.requested on
// the event bus, and resolves on Gate.Respond. Cancelling the context (the
// agent was aborted) resolves the pending prompt as a rejection so no
// decision point leaks.
//
// All types are safe for concurrent use; the session cache is the only
// shared mutable state and is guarded by a mutex.
package permission
