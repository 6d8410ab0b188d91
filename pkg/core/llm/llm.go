// Package llm defines the response-generation gateway consumed by the tutoring
// session: a bounded conversation snapshot goes in, one reply comes out.
package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request carries the bounded history snapshot plus generation parameters.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Generator produces one reply for a conversation snapshot. Implementations
// are stateless; all conversation memory lives with the caller.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}
