// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/vega/internal/api/job"
	"github.com/newthinker/vega/internal/api/response"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/strategy"
)

const backtestTimeout = 5 * time.Minute

// Runner executes one backtest request.
type Runner interface {
	Run(ctx context.Context, req backtest.Request) (*backtest.Result, error)
}

// RunnerResolver returns the Runner for a named data source. An empty
// name selects the default source.
type RunnerResolver func(source string) (Runner, error)

// JobRecorder tracks the number of in-flight jobs by type.
type JobRecorder interface {
	SetJobsActive(jobType string, count int)
}

// Defaults supplies fallback values for request fields the client may
// omit.
type Defaults struct {
	Start          time.Time
	End            time.Time
	InitialCapital float64
}

// BacktestRequest is the request body for starting a backtest. Either
// a preset name or an inline strategy config selects the strategy;
// the preset wins when both are present.
type BacktestRequest struct {
	Symbol         string           `json:"symbol"`
	Preset         string           `json:"preset,omitempty"`
	Strategy       *strategy.Config `json:"strategy,omitempty"`
	Start          string           `json:"start,omitempty"`
	End            string           `json:"end,omitempty"`
	InitialCapital float64          `json:"initial_capital,omitempty"`
	Source         string           `json:"source,omitempty"`
	Offline        bool             `json:"offline,omitempty"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobs     *job.Store
	resolve  RunnerResolver
	presets  strategy.Presets
	defaults Defaults
	recorder JobRecorder
}

// NewBacktestHandler creates a new backtest handler. The recorder may
// be nil.
func NewBacktestHandler(
	jobs *job.Store,
	resolve RunnerResolver,
	presets strategy.Presets,
	defaults Defaults,
	recorder JobRecorder,
) *BacktestHandler {
	return &BacktestHandler{
		jobs:     jobs,
		resolve:  resolve,
		presets:  presets,
		defaults: defaults,
		recorder: recorder,
	}
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if strings.TrimSpace(req.Symbol) == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapErrorf(core.ErrConfigMissing, "symbol"))
		return
	}

	cfg, err := h.resolveStrategy(req)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	start, end, err := h.resolveWindow(req)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = h.defaults.InitialCapital
	}
	if capital <= 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapErrorf(core.ErrConfigInvalid, "initial capital must be positive, got %v", capital))
		return
	}

	runner, err := h.resolve(req.Source)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	breq := backtest.Request{
		Symbol:         strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Strategy:       cfg,
		Start:          start,
		End:            end,
		InitialCapital: capital,
		Offline:        req.Offline,
	}

	j := h.jobs.Create("backtest")
	jobID := j.ID
	status := j.Status
	h.observeActive()

	go h.runBacktest(jobID, runner, breq)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// resolveStrategy picks the strategy config from the preset name or
// the inline config.
func (h *BacktestHandler) resolveStrategy(req BacktestRequest) (strategy.Config, error) {
	switch {
	case req.Preset != "":
		return h.presets.Resolve(req.Preset)
	case req.Strategy != nil:
		cfg := req.Strategy.Normalized()
		if err := cfg.Validate(); err != nil {
			return strategy.Config{}, err
		}
		return cfg, nil
	default:
		return strategy.Config{}, core.WrapErrorf(core.ErrConfigMissing, "strategy or preset")
	}
}

// resolveWindow fills omitted dates from the defaults and rejects
// inverted ranges.
func (h *BacktestHandler) resolveWindow(req BacktestRequest) (time.Time, time.Time, error) {
	start, end := h.defaults.Start, h.defaults.End
	if req.Start != "" {
		t, err := time.Parse(core.DateLayout, req.Start)
		if err != nil {
			return start, end, core.WrapErrorf(core.ErrConfigInvalid, "start %q: want YYYY-MM-DD", req.Start)
		}
		start = t
	}
	if req.End != "" {
		t, err := time.Parse(core.DateLayout, req.End)
		if err != nil {
			return start, end, core.WrapErrorf(core.ErrConfigInvalid, "end %q: want YYYY-MM-DD", req.End)
		}
		end = t
	}
	if end.Before(start) {
		return start, end, core.WrapErrorf(core.ErrConfigInvalid, "end %s before start %s",
			end.Format(core.DateLayout), start.Format(core.DateLayout))
	}
	return start, end, nil
}

// runBacktest executes the backtest and updates job status.
func (h *BacktestHandler) runBacktest(jobID string, runner Runner, req backtest.Request) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.observeActive()

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()
	result, err := runner.Run(ctx, req)

	if err != nil {
		var coreErr *core.Error
		if !errors.As(err, &coreErr) {
			coreErr = &core.Error{Code: "INTERNAL_ERROR", Message: "backtest run failed", Cause: err}
		}
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = coreErr
		})
		h.observeActive()
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusCompleted
		j.Result = result
	})
	h.observeActive()
}

// Get returns the status of a backtest job, with the full result once
// the run completes.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}
	if j.Status == job.StatusCompleted {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		detail := response.ErrorDetail{Code: j.Error.Code, Message: j.Error.Message}
		if j.Error.Cause != nil {
			detail.Cause = j.Error.Cause.Error()
		}
		resp["error"] = detail
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *BacktestHandler) observeActive() {
	if h.recorder != nil {
		h.recorder.SetJobsActive("backtest", h.jobs.CountActive("backtest"))
	}
}
