package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	// BaseURL points at any OpenAI-compatible endpoint; the default config
	// targets Gemini's compatibility surface.
	BaseURL string
	APIKey  string
	Model   string
}

// Client wraps an OpenAI-compatible chat completion API behind the two
// calls this system needs: free-form completion and nothing else. Intent
// classification is a plain completion with a constrained prompt, built on
// top of Complete by the agent package.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: cfg.Model,
	}
}

// Complete sends one system+user exchange and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
