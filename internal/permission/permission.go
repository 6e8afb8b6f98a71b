// Package permission decides whether an agent's tool invocation is allowed,
// denied, or needs interactive user approval.
package permission

import "fmt"

// Decision is the outcome category of a permission check.
type Decision int

const (
	// Ask defers the decision to interactive user approval.
	Ask Decision = iota
	// Allow permits the tool call.
	Allow
	// Deny blocks the tool call.
	Deny
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// Result is the outcome of a permission check. Reason is human-readable and
// sufficient for a UI to explain the outcome without log access.
// InferredPattern is set only for Ask: it is the rule an approving user
// would want remembered (session cache or settings file).
type Result struct {
	Decision        Decision
	Reason          string
	InferredPattern string
}

func allow(format string, args ...any) Result {
	return Result{Decision: Allow, Reason: fmt.Sprintf(format, args...)}
}

func deny(format string, args ...any) Result {
	return Result{Decision: Deny, Reason: fmt.Sprintf(format, args...)}
}

func askUser(reason, pattern string) Result {
	return Result{Decision: Ask, Reason: reason, InferredPattern: pattern}
}

// RejectedError is returned by callers that surface a Deny as an error to
// the agent runtime.
type RejectedError struct {
	ToolName string
	CallID   string
	Reason   string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("permission denied for %s", e.ToolName)
	}
	return fmt.Sprintf("permission denied for %s: %s", e.ToolName, e.Reason)
}

// IsRejectedError checks if an error is a permission rejection.
func IsRejectedError(err error) bool {
	_, ok := err.(*RejectedError)
	return ok
}
