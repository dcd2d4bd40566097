package llm

import "context"

// Message is one entry of a chat prompt.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Request describes a single chat completion call.
type Request struct {
	Messages  []Message
	JSONMode  bool
	MaxTokens int
}

// Generator is a pluggable text generation backend.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}
