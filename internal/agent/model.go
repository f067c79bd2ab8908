package agent

import "context"

// Role identifies the author of a history message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one prior chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResponse answers one ToolCall.
type ToolResponse struct {
	Name   string
	Result map[string]any
}

// Reply is one model response: text, tool calls, or both.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// Session is a single conversation with the model.
type Session interface {
	Send(ctx context.Context, text string) (Reply, error)
	SendToolResponses(ctx context.Context, responses []ToolResponse) (Reply, error)
}

// Model opens sessions seeded with a system prompt and prior turns.
type Model interface {
	StartSession(system string, history []Message) Session
}
