package chat

// Turn persists a single user or assistant message for audit/context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Agent   string `json:"agent,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall is one audit entry describing an internal decision step.
// It is observability-only; downstream logic never consults it.
type ToolCall struct {
	Tool   string         `json:"tool"`
	Input  map[string]any `json:"input"`
	Result map[string]any `json:"result"`
}

// Request is the inbound envelope for one chat turn.
type Request struct {
	SessionKey string `json:"sessionKey"`
	Message    string `json:"message"`
}

// Response is the composed reply plus the full decision trace.
type Response struct {
	Response  string     `json:"response"`
	Agent     string     `json:"agent"`
	ToolCalls []ToolCall `json:"toolCalls"`
	Handover  string     `json:"handover"`
}
