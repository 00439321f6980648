// internal/api/handler/api/commentary.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/vega/internal/advisor"
	"github.com/newthinker/vega/internal/api/job"
	"github.com/newthinker/vega/internal/api/response"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/core"
)

const commentaryTimeout = time.Minute

// AdvisorRecorder counts advisor calls by provider and outcome.
type AdvisorRecorder interface {
	ObserveAdvisorRequest(provider, status string)
}

// CommentaryHandler generates advisor commentary for completed runs.
// The advisor may be nil, in which case the endpoint reports itself
// unavailable.
type CommentaryHandler struct {
	jobs     *job.Store
	adv      advisor.Advisor
	recorder AdvisorRecorder
}

// NewCommentaryHandler creates a new commentary handler.
func NewCommentaryHandler(jobs *job.Store, adv advisor.Advisor, recorder AdvisorRecorder) *CommentaryHandler {
	return &CommentaryHandler{
		jobs:     jobs,
		adv:      adv,
		recorder: recorder,
	}
}

// Create handles POST /api/v1/backtests/{id}/commentary.
func (h *CommentaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.adv == nil {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapErrorf(core.ErrAdvisorFailed, "no advisor provider configured"))
		return
	}

	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	if j.Status != job.StatusCompleted {
		response.Error(w, http.StatusConflict,
			core.WrapErrorf(core.ErrNoData, "job %s is %s, commentary needs a completed run", j.ID, j.Status))
		return
	}
	res, ok := j.Result.(*backtest.Result)
	if !ok {
		response.Error(w, http.StatusConflict,
			core.WrapErrorf(core.ErrNoData, "job %s holds no backtest result", j.ID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commentaryTimeout)
	defer cancel()
	comment, err := h.adv.Comment(ctx, advisor.Summarize(res))
	h.observe(err)
	if err != nil {
		response.Error(w, http.StatusBadGateway, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"run_id":     res.ID,
		"provider":   h.adv.Name(),
		"commentary": comment,
	})
}

func (h *CommentaryHandler) observe(err error) {
	if h.recorder == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.recorder.ObserveAdvisorRequest(h.adv.Name(), status)
}
