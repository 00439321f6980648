package backtest

import (
	"time"

	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/strategy"
)

// Request describes one backtest run.
type Request struct {
	Symbol         string          `json:"symbol"`
	Strategy       strategy.Config `json:"strategy"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	InitialCapital float64         `json:"initial_capital"`
	Offline        bool            `json:"offline,omitempty"`
}

// Trade records one closed round trip. Immutable once recorded.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     int64     `json:"shares"`
	PnL        float64   `json:"pnl"`
	PnLPct     float64   `json:"pnl_pct"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint is the marked-to-market portfolio value after one bar.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"total_value"`
}

// OpenPosition describes a position still held at the end of the
// series. Its value is part of the final equity point but it never
// enters the trade log.
type OpenPosition struct {
	Shares     int64     `json:"shares"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
}

// Simulation is the portfolio simulator output for one run.
type Simulation struct {
	Equity      []EquityPoint `json:"equity_curve"`
	Trades      []Trade       `json:"trades"`
	Open        *OpenPosition `json:"open_position,omitempty"`
	FinalEquity float64       `json:"final_equity"`
}

// Report is the fixed set of performance scalars computed from the
// equity curve and trade log.
type Report struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	NumTrades      int     `json:"num_trades"`
}

// Result holds the complete backtest output
type Result struct {
	ID                   string          `json:"id"`
	Symbol               string          `json:"symbol"`
	Strategy             strategy.Config `json:"strategy"`
	StrategyLabel        string          `json:"strategy_label"`
	Start                time.Time       `json:"start"`
	End                  time.Time       `json:"end"`
	InitialCapital       float64         `json:"initial_capital"`
	Bars                 int             `json:"bars"`
	Signals              []core.Signal   `json:"signals"`
	Equity               []EquityPoint   `json:"equity_curve"`
	Trades               []Trade         `json:"trades"`
	OpenPosition         *OpenPosition   `json:"open_position,omitempty"`
	FinalEquity          float64         `json:"final_equity"`
	Report               Report          `json:"report"`
	BuyHoldReturnPct     float64         `json:"buy_hold_return_pct"`
	AnnualizedVolatility float64         `json:"annualized_volatility_pct"`
	SortinoRatio         float64         `json:"sortino_ratio"`
	CreatedAt            time.Time       `json:"created_at"`
	ElapsedMS            int64           `json:"elapsed_ms"`
}

// Comparison is the outcome of one symbol within a multi-symbol batch.
type Comparison struct {
	Symbol string  `json:"symbol"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}
