package driven

import "context"

// LLMService is the language-model backend used for grounded answer
// synthesis. Calls can be long-running; callers bound them with a context
// deadline. The core performs no internal retries: a failed call surfaces
// immediately as domain.ErrGeneration.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4 family)
type LLMService interface {
	// Chat sends a conversation and returns the assistant's reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
