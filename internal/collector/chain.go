package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/core"
)

// Chain tries each source in order and returns the first success. A
// source failure is logged and the next source is consulted.
type Chain struct {
	sources []Collector
	log     *zap.Logger
}

// NewChain builds a fallback chain over the given sources.
func NewChain(log *zap.Logger, sources ...Collector) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{sources: sources, log: log}
}

func (c *Chain) Name() string {
	return "chain"
}

// FetchDaily consults the sources in order. The error of the last source
// is returned when all fail; context cancellation stops the chain early.
func (c *Chain) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if len(c.sources) == 0 {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "no data sources configured")
	}

	var lastErr error
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := src.FetchDaily(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		lastErr = err
		c.log.Warn("data source failed, trying next",
			zap.String("source", src.Name()),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	return nil, lastErr
}
