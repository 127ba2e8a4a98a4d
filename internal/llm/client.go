package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Request is one chat completion call. Zero MaxTokens or Temperature leave
// the provider default in place.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
