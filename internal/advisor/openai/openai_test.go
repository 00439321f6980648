// internal/advisor/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/core"
)

func TestAdvisor_ImplementsInterface(t *testing.T) {
	var _ advisor.Advisor = (*Advisor)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected CONFIG_MISSING for empty API key, got %v", err)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	a, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", a.model)
	}
}

func TestAdvisor_Comment(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "The strategy lagged buy and hold."},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer srv.Close()

	a, err := New("test-key", "gpt-4o", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comment, err := a.Comment(context.Background(), advisor.Summary{
		Symbol:   "AAPL",
		Strategy: "SMA Crossover (20/50)",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment != "The strategy lagged buy and hold." {
		t.Errorf("unexpected comment: %q", comment)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if !strings.Contains(gotBody, "Symbol: AAPL") {
		t.Errorf("request body missing summary: %s", gotBody)
	}
}

func TestAdvisor_Comment_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a, err := New("test-key", "gpt-4o", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = a.Comment(context.Background(), advisor.Summary{Symbol: "AAPL"})
	if !errors.Is(err, core.ErrAdvisorFailed) {
		t.Errorf("expected ADVISOR_FAILED, got %v", err)
	}
}
