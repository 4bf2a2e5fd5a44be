package llm

import (
	"context"
	"fmt"

	"github.com/bowerhall/carydes/internal/sanitize"
)

// DefaultSystemPrompt frames every request when no override is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant. Provide concise and accurate responses."

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

type Message struct {
	Role    string
	Content string
}

// Client is the inference collaborator: one completion call plus a cheap
// reachability probe for /status.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Ping(ctx context.Context) error
}

type Config struct {
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

// New builds a client for an OpenAI-compatible endpoint on this machine
// (LM Studio, Ollama's /v1, llama.cpp server). The base URL is re-checked
// here so a client can never be constructed against a non-local address,
// wherever the config came from.
func New(cfg Config) (Client, error) {
	if err := sanitize.ValidateURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("inference url: %w", err)
	}

	return newLMStudio(cfg), nil
}
