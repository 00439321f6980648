package collector

import (
	"context"
	"time"

	"github.com/newthinker/vega/internal/core"
)

// Collector defines the interface for daily bar sources.
type Collector interface {
	// Name identifies the source in logs, metrics, and config.
	Name() string

	// FetchDaily returns the daily bars for symbol between start and end
	// inclusive, sorted by date ascending.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}

// FetchObserver counts fetch attempts per source and outcome.
// Implementations must be safe for concurrent use.
type FetchObserver interface {
	ObserveFetch(source, status string)
}
