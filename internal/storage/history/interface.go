// internal/storage/history/interface.go
package history

import (
	"context"
	"time"
)

// Record is the flattened summary of one completed backtest run. The full
// result document lives in the archive; history keeps just enough to list
// and compare past runs.
type Record struct {
	ID               string    `json:"id"`
	Symbol           string    `json:"symbol"`
	Strategy         string    `json:"strategy"`
	Label            string    `json:"label"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	InitialCapital   float64   `json:"initial_capital"`
	FinalEquity      float64   `json:"final_equity"`
	TotalReturnPct   float64   `json:"total_return_pct"`
	Volatility       float64   `json:"volatility"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdownPct   float64   `json:"max_drawdown_pct"`
	WinRatePct       float64   `json:"win_rate_pct"`
	NumTrades        int       `json:"num_trades"`
	BuyHoldReturnPct float64   `json:"buy_hold_return_pct"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store defines the interface for run history persistence.
type Store interface {
	// Save persists a run record. A missing ID is assigned.
	Save(ctx context.Context, rec Record) error

	// GetByID retrieves a record by its run ID.
	GetByID(ctx context.Context, id string) (*Record, error)

	// List retrieves records matching the filter, most recent first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing run records.
type ListFilter struct {
	Symbol   string
	Strategy string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
