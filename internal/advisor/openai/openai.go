// internal/advisor/openai/openai.go
package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/core"
)

// Advisor comments on runs through the OpenAI chat completions API.
type Advisor struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI advisor. A non-empty baseURL points the
// client at an OpenAI-compatible endpoint.
func New(apiKey, model, baseURL string) (*Advisor, error) {
	if apiKey == "" {
		return nil, core.WrapErrorf(core.ErrConfigMissing, "openai api key required")
	}
	if model == "" {
		model = "gpt-4o"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Advisor{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name returns the provider name.
func (a *Advisor) Name() string {
	return "openai"
}

// Comment asks the model for commentary on the run summary.
func (a *Advisor) Comment(ctx context.Context, s advisor.Summary) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 512,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: advisor.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: advisor.Prompt(s),
			},
		},
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", core.WrapErrorf(core.ErrAdvisorFailed, "empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
