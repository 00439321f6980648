// internal/advisor/claude/claude.go
package claude

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/core"
)

// Advisor comments on runs through the Anthropic API.
type Advisor struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude advisor.
func New(apiKey, model string) (*Advisor, error) {
	if apiKey == "" {
		return nil, core.WrapErrorf(core.ErrConfigMissing, "claude api key required")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Advisor{client: client, model: model}, nil
}

// Name returns the provider name.
func (a *Advisor) Name() string {
	return "claude"
}

// Comment asks Claude for commentary on the run summary.
func (a *Advisor) Comment(ctx context.Context, s advisor.Summary) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: advisor.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(advisor.Prompt(s))),
		},
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Type != "text" {
		return "", core.WrapErrorf(core.ErrAdvisorFailed, "empty response from claude")
	}
	return resp.Content[0].Text, nil
}
