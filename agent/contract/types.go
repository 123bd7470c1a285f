package contract

import (
	"encoding/json"
	"time"
)

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry of a session transcript. User turns carry Content only;
// assistant turns carry Content and/or ToolCalls; tool turns carry the
// serialized result plus the call correlation fields.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ToolCall is a model-initiated request to invoke a named tool. Arguments is
// the raw JSON payload exactly as the model produced it; parsing into a typed
// request happens at the tool boundary.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the structured outcome of executing one ToolCall. IsError
// marks domain failures fed back to the model; it is never a transport fault.
type ToolResult struct {
	CallID  string          `json:"call_id"`
	Tool    string          `json:"tool"`
	Payload json.RawMessage `json:"payload"`
	IsError bool            `json:"is_error,omitempty"`
}

// ToolSpec is the schema sent to the model describing a callable tool.
// Parameters is a JSON-schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CompletionRequest is one model invocation: system instructions, the full
// transcript so far, and the tool catalog.
type CompletionRequest struct {
	System string
	Turns  []Turn
	Tools  []ToolSpec
}

// ModelResponse is either a plain assistant message (Content, no ToolCalls)
// or a request to invoke one or more tools.
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// AccountMetadata is attached to a chat turn's output when the turn created
// an account.
type AccountMetadata struct {
	AccountCreated bool   `json:"accountCreated"`
	AccountNumber  string `json:"accountNumber,omitempty"`
	RoutingNumber  string `json:"routingNumber,omitempty"`
	AccountType    string `json:"accountType,omitempty"`
}
