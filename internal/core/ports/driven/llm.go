package driven

import "context"

// LLMService composes answers from a conversation. The core treats the
// reply as opaque text.
type LLMService interface {
	// Chat sends messages and returns the model's reply.
	// A leading RoleSystem message carries the instructions.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the configured model.
	ModelName() string

	// Ping checks the provider is reachable without running inference
	// where the API allows it.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single Chat call. Zero values use provider defaults,
// except Temperature where zero means deterministic.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
