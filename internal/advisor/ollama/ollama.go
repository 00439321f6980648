// internal/advisor/ollama/ollama.go
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/core"
)

// Advisor comments on runs through a local Ollama instance.
type Advisor struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a new Ollama advisor.
func New(endpoint, model string) (*Advisor, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	return &Advisor{
		endpoint: endpoint,
		model:    model,
		client: &http.Client{
			Timeout: 5 * time.Minute, // LLM inference can be slow
		},
	}, nil
}

// Name returns the provider name.
func (a *Advisor) Name() string {
	return "ollama"
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Comment asks the local model for commentary on the run summary.
func (a *Advisor) Comment(ctx context.Context, s advisor.Summary) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: advisor.SystemPrompt},
			{Role: "user", Content: advisor.Prompt(s)},
		},
		Stream: false,
	})
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", core.WrapErrorf(core.ErrAdvisorFailed, "ollama status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", core.WrapError(core.ErrAdvisorFailed, err)
	}
	if out.Message.Content == "" {
		return "", core.WrapErrorf(core.ErrAdvisorFailed, "empty response from ollama")
	}
	return out.Message.Content, nil
}
