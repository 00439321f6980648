// internal/advisor/claude/claude_test.go
package claude

import (
	"errors"
	"testing"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/core"
)

func TestAdvisor_ImplementsInterface(t *testing.T) {
	var _ advisor.Advisor = (*Advisor)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected CONFIG_MISSING for empty API key, got %v", err)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	a, err := New("test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.model == "" {
		t.Error("expected a default model")
	}
}
