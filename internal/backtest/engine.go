package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/storage/archive"
	"github.com/newthinker/vega/internal/storage/history"
	"github.com/newthinker/vega/internal/strategy"
)

// BarProvider defines the interface for fetching historical daily bars.
type BarProvider interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}

// BarCache defines the interface for the local bar cache consulted before
// the provider.
type BarCache interface {
	Load(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
	Save(ctx context.Context, symbol string, start, end time.Time, bars []core.Bar) error
}

// RunRecorder receives one observation per finished run plus cache
// hit/miss events.
type RunRecorder interface {
	ObserveRun(strategy, status string, seconds float64)
	ObserveCacheEvent(event string)
}

// EngineOptions carries the optional collaborators of an Engine. A nil
// field disables that concern.
type EngineOptions struct {
	Cache    BarCache
	History  history.Store
	Archive  archive.Storage
	Recorder RunRecorder
	Logger   *zap.Logger
}

// Engine runs strategy backtests against historical data.
type Engine struct {
	provider BarProvider
	cache    BarCache
	history  history.Store
	archive  archive.Storage
	recorder RunRecorder
	log      *zap.Logger
}

// NewEngine creates an Engine around the given bar provider.
func NewEngine(provider BarProvider, opts EngineOptions) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		provider: provider,
		cache:    opts.Cache,
		history:  opts.History,
		archive:  opts.Archive,
		recorder: opts.Recorder,
		log:      log,
	}
}

// Run executes one backtest end to end: acquire bars, generate signals,
// simulate the portfolio, compute performance, persist the outcome.
func (e *Engine) Run(ctx context.Context, req Request) (result *Result, err error) {
	started := time.Now()
	cfg := req.Strategy.Normalized()

	if e.recorder != nil {
		defer func() {
			status := "ok"
			if err != nil {
				status = "error"
			}
			e.recorder.ObserveRun(string(cfg.Kind), status, time.Since(started).Seconds())
		}()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequest(req, cfg); err != nil {
		return nil, err
	}

	bars, err := e.loadBars(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s %s to %s",
			req.Symbol, req.Start.Format(core.DateLayout), req.End.Format(core.DateLayout))
	}
	if min := cfg.MinBars(); len(bars) < min {
		e.log.Warn("series shorter than strategy warm-up, signals will all be hold",
			zap.String("symbol", req.Symbol),
			zap.Int("bars", len(bars)),
			zap.Int("min_bars", min))
	}

	signals, err := strategy.Generate(bars, cfg)
	if err != nil {
		return nil, err
	}

	sim, err := Simulate(bars, signals, req.InitialCapital)
	if err != nil {
		return nil, err
	}

	result = &Result{
		ID:                   uuid.NewString(),
		Symbol:               req.Symbol,
		Strategy:             cfg,
		StrategyLabel:        cfg.Label(),
		Start:                req.Start,
		End:                  req.End,
		InitialCapital:       req.InitialCapital,
		Bars:                 len(bars),
		Signals:              signals,
		Equity:               sim.Equity,
		Trades:               sim.Trades,
		OpenPosition:         sim.Open,
		FinalEquity:          sim.FinalEquity,
		Report:               Calculate(sim.Equity, sim.Trades, req.InitialCapital),
		BuyHoldReturnPct:     BuyHoldReturnPct(bars),
		AnnualizedVolatility: AnnualizedVolatility(sim.Equity),
		SortinoRatio:         SortinoRatio(sim.Equity),
		CreatedAt:            time.Now().UTC(),
		ElapsedMS:            time.Since(started).Milliseconds(),
	}

	e.persist(ctx, result)

	e.log.Info("backtest complete",
		zap.String("run_id", result.ID),
		zap.String("symbol", result.Symbol),
		zap.String("strategy", result.StrategyLabel),
		zap.Int("bars", result.Bars),
		zap.Int("trades", result.Report.NumTrades),
		zap.Float64("total_return_pct", result.Report.TotalReturnPct),
		zap.Int64("elapsed_ms", result.ElapsedMS))

	return result, nil
}

// RunMany executes the same request against several symbols concurrently.
// Results come back in input order; a failure on one symbol does not stop
// the rest of the batch.
func (e *Engine) RunMany(ctx context.Context, symbols []string, req Request) []Comparison {
	out := make([]Comparison, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			r := req
			r.Symbol = sym
			res, err := e.Run(ctx, r)
			out[i] = Comparison{Symbol: sym, Result: res, Err: err}
		}(i, sym)
	}
	wg.Wait()
	return out
}

func validateRequest(req Request, cfg strategy.Config) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return core.WrapErrorf(core.ErrSymbolInvalid, "empty symbol")
	}
	if req.InitialCapital <= 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "initial capital must be positive, got %v", req.InitialCapital)
	}
	if req.End.Before(req.Start) {
		return core.WrapErrorf(core.ErrConfigInvalid, "end %s before start %s",
			req.End.Format(core.DateLayout), req.Start.Format(core.DateLayout))
	}
	return cfg.Validate()
}

// loadBars resolves the price series cache-first: a hit skips the
// provider entirely, a miss fetches and writes through. Cache write
// failures degrade to a warning, never a failed run.
func (e *Engine) loadBars(ctx context.Context, req Request) ([]core.Bar, error) {
	if e.cache != nil {
		bars, err := e.cache.Load(ctx, req.Symbol, req.Start, req.End)
		if err == nil {
			e.observeCache("hit")
			e.log.Debug("bar cache hit",
				zap.String("symbol", req.Symbol), zap.Int("bars", len(bars)))
			return bars, nil
		}
		e.observeCache("miss")
		if !errors.Is(err, core.ErrCacheMiss) {
			e.log.Warn("bar cache read failed, refetching",
				zap.String("symbol", req.Symbol), zap.Error(err))
		}
	}

	if req.Offline {
		return nil, core.WrapErrorf(core.ErrCacheMiss, "%s %s to %s not cached and offline mode is on",
			req.Symbol, req.Start.Format(core.DateLayout), req.End.Format(core.DateLayout))
	}

	bars, err := e.provider.FetchDaily(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && len(bars) > 0 {
		if err := e.cache.Save(ctx, req.Symbol, req.Start, req.End, bars); err != nil {
			e.log.Warn("bar cache write failed",
				zap.String("symbol", req.Symbol), zap.Error(err))
		}
	}
	return bars, nil
}

func (e *Engine) observeCache(event string) {
	if e.recorder != nil {
		e.recorder.ObserveCacheEvent(event)
	}
}

// persist records the run in history and archives the full document.
// Both stores are best effort: the result is already complete.
func (e *Engine) persist(ctx context.Context, res *Result) {
	if e.history != nil {
		rec := history.Record{
			ID:               res.ID,
			Symbol:           res.Symbol,
			Strategy:         string(res.Strategy.Kind),
			Label:            res.StrategyLabel,
			Start:            res.Start,
			End:              res.End,
			InitialCapital:   res.InitialCapital,
			FinalEquity:      res.FinalEquity,
			TotalReturnPct:   res.Report.TotalReturnPct,
			Volatility:       res.Report.Volatility,
			SharpeRatio:      res.Report.SharpeRatio,
			MaxDrawdownPct:   res.Report.MaxDrawdownPct,
			WinRatePct:       res.Report.WinRatePct,
			NumTrades:        res.Report.NumTrades,
			BuyHoldReturnPct: res.BuyHoldReturnPct,
			CreatedAt:        res.CreatedAt,
		}
		if err := e.history.Save(ctx, rec); err != nil {
			e.log.Warn("history save failed",
				zap.String("run_id", res.ID), zap.Error(err))
		}
	}

	if e.archive != nil {
		data, err := json.Marshal(res)
		if err == nil {
			err = e.archive.Write(ctx, archive.ResultKey(res.CreatedAt, res.ID), data)
		}
		if err != nil {
			e.log.Warn("archive write failed",
				zap.String("run_id", res.ID), zap.Error(err))
		}
	}
}
