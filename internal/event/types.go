package event

// ApprovalRequestedData is the payload for approval.requested events.
type ApprovalRequestedData struct {
	ID              string `json:"id"`
	ToolName        string `json:"toolName"`
	Title           string `json:"title"`
	InferredPattern string `json:"inferredPattern,omitempty"`
}

// ApprovalResolvedData is the payload for approval.resolved events.
type ApprovalResolvedData struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}
