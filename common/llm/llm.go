package llm

import (
	"context"
	"fmt"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Message roles accepted in Request.Messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client produces a structured object for a prompt.
//
// Implementations decode the model output into result. When the provider can
// enforce Request.Schema natively the output is decoded as-is; otherwise the
// first balanced JSON object is extracted from free-form text and validated
// against the schema before decoding.
type Client interface {
	Chat(ctx context.Context, req Request, result any) (*Response, error)
	Model() string
	Provider() string
}

// Config holds LLM client configuration.
type Config struct {
	Provider string // "openai" or "anthropic"
	APIKey   string // Required: API key for the provider
	BaseURL  string // Optional: custom API endpoint
	Model    string // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
}

type Request struct {
	SystemPrompt string
	Messages     []Message // few-shot turns followed by the final user turn
	SchemaName   string
	Schema       any
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

// Message represents a conversation message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

type Response struct {
	Content          string // raw text returned by the model
	PromptTokens     int
	CompletionTokens int
}

// New creates a Client for the configured provider.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func Temp(t float64) *float64 {
	return &t
}
