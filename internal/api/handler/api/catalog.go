// internal/api/handler/api/catalog.go
package api

import (
	"net/http"

	"github.com/newthinker/vega/internal/api/response"
	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/strategy"
)

// PresetInfo describes one named strategy preset.
type PresetInfo struct {
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Config strategy.Config `json:"config"`
}

// CatalogHandler serves the strategy preset and symbol catalogues.
type CatalogHandler struct {
	presets strategy.Presets
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(presets strategy.Presets) *CatalogHandler {
	return &CatalogHandler{presets: presets}
}

// Strategies handles GET /api/v1/strategies.
func (h *CatalogHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	names := h.presets.Names()
	items := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		cfg := h.presets[name]
		items = append(items, PresetInfo{Name: name, Label: cfg.Label(), Config: cfg})
	}
	response.JSON(w, http.StatusOK, map[string]any{"strategies": items})
}

// Symbols handles GET /api/v1/symbols.
func (h *CatalogHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{"symbols": collector.PopularSymbols()})
}
