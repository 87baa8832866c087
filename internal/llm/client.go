// Package llm wraps the upstream completion provider behind a small
// streaming interface.
package llm

import (
	"context"
	"fmt"

	"github.com/safecase-systems/safecase/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client wraps a langchaingo model for streamed chat completion.
type Client struct {
	llm       llms.Model
	provider  string
	modelName string
}

// NewClient creates a completion client for the configured provider.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return &Client{
		llm:       model,
		provider:  cfg.Provider,
		modelName: cfg.Model,
	}, nil
}

// StreamCompletion submits the ordered message sequence and invokes fn
// once per text fragment as the provider produces it. The stream is
// finite and not restartable; cancelling ctx stops the upstream call.
func (c *Client) StreamCompletion(ctx context.Context, messages []llms.MessageContent, fn func(ctx context.Context, chunk []byte) error) error {
	_, err := c.llm.GenerateContent(ctx, messages, llms.WithStreamingFunc(fn))
	if err != nil {
		return fmt.Errorf("stream completion: %w", err)
	}
	return nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}
