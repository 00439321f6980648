// internal/advisor/factory/factory.go
package factory

import (
	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/advisor/claude"
	"github.com/newthinker/vega/internal/advisor/ollama"
	"github.com/newthinker/vega/internal/advisor/openai"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/core"
)

// New creates an advisor from configuration. Callers should skip the
// factory entirely when no provider is configured.
func New(cfg config.AdvisorConfig) (advisor.Advisor, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.APIKey, cfg.Model)
	case "openai":
		return openai.New(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "ollama":
		return ollama.New(cfg.BaseURL, cfg.Model)
	default:
		return nil, core.WrapErrorf(core.ErrConfigInvalid, "unknown advisor provider %q", cfg.Provider)
	}
}
