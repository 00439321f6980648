// internal/api/handler/api/history.go
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/vega/internal/api/response"
	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/storage/history"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandler lists past runs from the history store. A nil store
// means history is disabled.
type HistoryHandler struct {
	store history.Store
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(store history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List handles GET /api/v1/history with optional symbol, strategy,
// from, to, limit and offset query parameters.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapErrorf(core.ErrNoData, "run history is disabled"))
		return
	}

	filter, err := parseHistoryFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	records, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Page{
		Items:  records,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func parseHistoryFilter(r *http.Request) (history.ListFilter, error) {
	q := r.URL.Query()
	filter := history.ListFilter{
		Symbol:   strings.ToUpper(q.Get("symbol")),
		Strategy: q.Get("strategy"),
		Limit:    defaultHistoryLimit,
	}

	if v := q.Get("from"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			return filter, core.WrapErrorf(core.ErrConfigInvalid, "from %q: want YYYY-MM-DD", v)
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			return filter, core.WrapErrorf(core.ErrConfigInvalid, "to %q: want YYYY-MM-DD", v)
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, core.WrapErrorf(core.ErrConfigInvalid, "limit %q", v)
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, core.WrapErrorf(core.ErrConfigInvalid, "offset %q", v)
		}
		filter.Offset = n
	}
	return filter, nil
}

// parseDay accepts RFC3339 timestamps or bare dates.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(core.DateLayout, s)
}
