package permission

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/opencode-ai/toolgate/internal/event"
	"github.com/opencode-ai/toolgate/internal/tool"
)

// AskAction is a user's answer to an approval prompt.
type AskAction string

const (
	// ActionOnce permits this invocation only.
	ActionOnce AskAction = "once"
	// ActionAlways permits and remembers the inferred pattern for the session.
	ActionAlways AskAction = "always"
	// ActionReject blocks the invocation.
	ActionReject AskAction = "reject"
)

// AskRequest describes one pending approval.
type AskRequest struct {
	ID              string
	ToolName        string
	CallID          string
	Title           string
	InferredPattern string
}

// Gate parks Ask decisions until a human answers. It publishes
// approval.requested when a prompt opens and approval.resolved when it
// closes, so a UI layer only needs Subscribe plus Respond.
type Gate struct {
	checker *Checker
	bus     *event.Bus

	mu      sync.Mutex
	pending map[string]chan AskAction
}

// NewGate creates a gate feeding "always" answers into the checker's
// session cache.
func NewGate(checker *Checker, bus *event.Bus) *Gate {
	return &Gate{
		checker: checker,
		bus:     bus,
		pending: make(map[string]chan AskAction),
	}
}

// Resolve runs the full decision for a tool-use event, blocking on user
// approval when the checker asks. It returns nil when the call may proceed
// and a *RejectedError when it may not. In DenyOnAsk mode the ask path is
// short-circuited to a rejection without prompting.
func (g *Gate) Resolve(ctx context.Context, toolName string, input tool.Input, cwd string) error {
	result := g.checker.CheckPermission(toolName, input, cwd)
	switch result.Decision {
	case Allow:
		return nil
	case Deny:
		return &RejectedError{ToolName: toolName, Reason: result.Reason}
	}

	if g.checker.AskBehavior() == DenyOnAsk {
		return &RejectedError{ToolName: toolName, Reason: "approval required but prompts are disabled"}
	}

	return g.Ask(ctx, AskRequest{
		ToolName:        toolName,
		Title:           result.Reason,
		InferredPattern: result.InferredPattern,
	})
}

// Ask publishes an approval request and waits for Respond or context
// cancellation. An aborted agent resolves the pending prompt as a rejection
// rather than leaving it dangling.
func (g *Gate) Ask(ctx context.Context, req AskRequest) error {
	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	respChan := make(chan AskAction, 1)
	g.mu.Lock()
	g.pending[req.ID] = respChan
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.pending, req.ID)
		g.mu.Unlock()
	}()

	g.bus.Publish(event.Event{
		Type: event.ApprovalRequested,
		Data: event.ApprovalRequestedData{
			ID:              req.ID,
			ToolName:        req.ToolName,
			Title:           req.Title,
			InferredPattern: req.InferredPattern,
		},
	})

	select {
	case <-ctx.Done():
		g.bus.Publish(event.Event{
			Type: event.ApprovalResolved,
			Data: event.ApprovalResolvedData{ID: req.ID, Granted: false},
		})
		return &RejectedError{
			ToolName: req.ToolName,
			CallID:   req.CallID,
			Reason:   "agent aborted while approval was pending",
		}
	case action := <-respChan:
		switch action {
		case ActionOnce:
			return nil
		case ActionAlways:
			g.checker.AddSessionPattern(req.InferredPattern)
			return nil
		default:
			return &RejectedError{
				ToolName: req.ToolName,
				CallID:   req.CallID,
				Reason:   "rejected by user",
			}
		}
	}
}

// Respond answers a pending approval request. It reports false when the
// request is unknown or already resolved.
func (g *Gate) Respond(requestID string, action AskAction) bool {
	g.mu.Lock()
	ch, ok := g.pending[requestID]
	if ok {
		delete(g.pending, requestID)
	}
	g.mu.Unlock()
	if !ok {
		return false
	}

	ch <- action

	g.bus.Publish(event.Event{
		Type: event.ApprovalResolved,
		Data: event.ApprovalResolvedData{ID: requestID, Granted: action != ActionReject},
	})
	return true
}

// PendingCount returns the number of unanswered approval requests.
func (g *Gate) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
