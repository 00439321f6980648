package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/advisor"
	advisorfactory "github.com/newthinker/vega/internal/advisor/factory"
	"github.com/newthinker/vega/internal/api"
	handlerapi "github.com/newthinker/vega/internal/api/handler/api"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/collector/stooq"
	"github.com/newthinker/vega/internal/collector/yahoo"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/metrics"
	"github.com/newthinker/vega/internal/storage/archive"
	"github.com/newthinker/vega/internal/storage/cache"
	"github.com/newthinker/vega/internal/storage/history"
	"github.com/newthinker/vega/internal/strategy"
)

// App assembles the backtest stack from configuration: data sources,
// cache, stores, engines, advisor, and the HTTP server.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Registry

	collectors *collector.Registry
	chain      collector.Collector
	cache      *cache.ParquetCache
	history    history.Store
	archive    archive.Storage
	advisor    advisor.Advisor
	presets    strategy.Presets

	engines map[string]*backtest.Engine
	def     *backtest.Engine

	mu      sync.Mutex
	running bool
}

// New builds the application from configuration. The logger may be nil.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reg := metrics.NewRegistry()

	collectors := collector.NewRegistry()
	collectors.Register(yahoo.New(yahoo.Options{
		Timeout:    cfg.Fetch.Timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
		RetryDelay: cfg.Fetch.RetryDelay,
		Observer:   reg,
	}))
	collectors.Register(stooq.New(stooq.Options{
		Timeout:  cfg.Fetch.Timeout,
		Observer: reg,
	}))

	if _, ok := collectors.Get(cfg.Data.Source); !ok {
		return nil, core.WrapErrorf(core.ErrConfigInvalid, "unknown data source %q", cfg.Data.Source)
	}

	presets, err := strategy.LoadPresets(cfg.Backtest.PresetsFile)
	if err != nil {
		return nil, err
	}

	var hist history.Store
	if cfg.History.Enabled {
		if cfg.History.Path != "" {
			store, err := history.NewSQLiteStore(cfg.History.Path)
			if err != nil {
				return nil, fmt.Errorf("opening history store: %w", err)
			}
			hist = store
		} else {
			hist = history.NewMemoryStore(cfg.History.MaxSize)
		}
	}

	var arch archive.Storage
	if cfg.Archive.Enabled {
		switch cfg.Archive.Backend {
		case "localfs":
			arch, err = archive.NewLocalFS(cfg.Archive.Dir)
		case "s3":
			arch, err = archive.NewS3(archive.S3Config{
				Bucket:    cfg.Archive.S3.Bucket,
				Region:    cfg.Archive.S3.Region,
				Endpoint:  cfg.Archive.S3.Endpoint,
				AccessKey: cfg.Archive.S3.AccessKey,
				SecretKey: cfg.Archive.S3.SecretKey,
				Prefix:    cfg.Archive.S3.Prefix,
			})
		default:
			err = core.WrapErrorf(core.ErrConfigInvalid, "unknown archive backend %q", cfg.Archive.Backend)
		}
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
	}

	var adv advisor.Advisor
	if cfg.Advisor.Provider != "" {
		adv, err = advisorfactory.New(cfg.Advisor)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		metrics:    reg,
		collectors: collectors,
		cache:      cache.NewParquetCache(cfg.Data.Dir),
		history:    hist,
		archive:    arch,
		advisor:    adv,
		presets:    presets,
	}
	a.chain = a.buildChain()

	opts := backtest.EngineOptions{
		Cache:    a.cache,
		History:  hist,
		Archive:  arch,
		Recorder: reg,
		Logger:   log,
	}
	a.engines = make(map[string]*backtest.Engine)
	for _, name := range collectors.Names() {
		c, _ := collectors.Get(name)
		a.engines[name] = backtest.NewEngine(c, opts)
	}
	a.def = backtest.NewEngine(a.chain, opts)

	return a, nil
}

// buildChain orders the sources with the configured one first so the
// rest only serve as fallback.
func (a *App) buildChain() collector.Collector {
	primary, _ := a.collectors.Get(a.cfg.Data.Source)
	sources := []collector.Collector{primary}
	for _, name := range a.collectors.Names() {
		if name == a.cfg.Data.Source {
			continue
		}
		c, _ := a.collectors.Get(name)
		sources = append(sources, c)
	}
	return collector.NewChain(a.log, sources...)
}

// Engine returns the default engine backed by the source chain.
func (a *App) Engine() *backtest.Engine {
	return a.def
}

// EngineFor returns the engine for a specific data source. An empty
// name selects the default.
func (a *App) EngineFor(name string) (*backtest.Engine, error) {
	if name == "" {
		return a.def, nil
	}
	eng, ok := a.engines[name]
	if !ok {
		return nil, core.WrapErrorf(core.ErrConfigInvalid, "unknown data source %q", name)
	}
	return eng, nil
}

// Presets returns the loaded strategy preset catalogue.
func (a *App) Presets() strategy.Presets {
	return a.presets
}

// History returns the run history store, nil when disabled.
func (a *App) History() history.Store {
	return a.history
}

// Cache returns the local bar cache.
func (a *App) Cache() *cache.ParquetCache {
	return a.cache
}

// Metrics returns the Prometheus registry.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Advisor returns the configured advisor, nil when none is set up.
func (a *App) Advisor() advisor.Advisor {
	return a.advisor
}

// Download fetches daily bars for one symbol and writes them to the
// cache. Unless force is set, an existing cache entry short-circuits
// the fetch. Returns the number of bars now cached.
func (a *App) Download(ctx context.Context, symbol string, start, end time.Time, force bool) (int, error) {
	if !force {
		if bars, err := a.cache.Load(ctx, symbol, start, end); err == nil {
			return len(bars), nil
		}
	}

	bars, err := a.chain.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, core.WrapErrorf(core.ErrNoData, "%s %s to %s",
			symbol, start.Format(core.DateLayout), end.Format(core.DateLayout))
	}
	if err := a.cache.Save(ctx, symbol, start, end, bars); err != nil {
		return 0, fmt.Errorf("caching %s: %w", symbol, err)
	}
	return len(bars), nil
}

// RefreshOnce re-downloads the refresh symbols into the cache for the
// configured date range. Per-symbol failures are logged and never stop
// the pass.
func (a *App) RefreshOnce(ctx context.Context) {
	symbols := a.cfg.Refresh.Symbols
	if len(symbols) == 0 {
		symbols = collector.PopularSymbols()
	}
	start, end, err := a.cfg.Backtest.StartEnd()
	if err != nil {
		a.log.Error("refresh skipped, invalid date range", zap.Error(err))
		return
	}

	a.log.Info("cache refresh starting", zap.Int("symbols", len(symbols)))
	ok := 0
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return
		}
		n, err := a.Download(ctx, sym, start, end, true)
		if err != nil {
			a.log.Warn("refresh failed",
				zap.String("symbol", sym),
				zap.Error(err))
			continue
		}
		ok++
		a.log.Debug("refreshed",
			zap.String("symbol", sym),
			zap.Int("bars", n))
	}
	a.log.Info("cache refresh complete",
		zap.Int("refreshed", ok),
		zap.Int("failed", len(symbols)-ok))
}

// Serve runs the HTTP API until the context is canceled, with the
// scheduled cache refresh running alongside when configured. An empty
// addr falls back to the configured one.
func (a *App) Serve(ctx context.Context, addr string) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already serving")
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	start, end, err := a.cfg.Backtest.StartEnd()
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Config{
		Addr:    addr,
		APIKey:  a.cfg.Server.APIKey,
		MaxJobs: a.cfg.Server.MaxJobs,
		JobTTL:  time.Duration(a.cfg.Server.JobTTLHours) * time.Hour,
	}, api.Dependencies{
		Resolve: func(source string) (handlerapi.Runner, error) {
			eng, err := a.EngineFor(source)
			if err != nil {
				return nil, err
			}
			return eng, nil
		},
		Presets: a.presets,
		Defaults: handlerapi.Defaults{
			Start:          start,
			End:            end,
			InitialCapital: a.cfg.Backtest.InitialCapital,
		},
		History: a.history,
		Advisor: a.advisor,
		Metrics: a.metrics,
	}, a.log)
	if err != nil {
		return err
	}

	refresher := a.startRefresh(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if refresher != nil {
			refresher.Stop()
		}
		return err
	case <-ctx.Done():
	}

	if refresher != nil {
		refresher.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// startRefresh schedules the periodic cache refresh when configured.
func (a *App) startRefresh(ctx context.Context) *cron.Cron {
	if a.cfg.Refresh.Schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(a.cfg.Refresh.Schedule, func() {
		a.RefreshOnce(ctx)
	})
	if err != nil {
		a.log.Error("invalid refresh schedule",
			zap.String("schedule", a.cfg.Refresh.Schedule),
			zap.Error(err))
		return nil
	}
	c.Start()
	a.log.Info("cache refresh scheduled", zap.String("schedule", a.cfg.Refresh.Schedule))
	return c
}

// Close releases resources held by the stores.
func (a *App) Close() error {
	if closer, ok := a.history.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
