package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/core"
)

// Advisor produces natural-language commentary on a completed backtest.
// It never feeds back into the simulation; the numbers stand on their own.
type Advisor interface {
	Name() string
	Comment(ctx context.Context, s Summary) (string, error)
}

// Summary is the flattened outcome of one run, everything a provider
// needs to comment without seeing the full result document.
type Summary struct {
	Symbol           string  `json:"symbol"`
	Strategy         string  `json:"strategy"`
	Start            string  `json:"start"`
	End              string  `json:"end"`
	InitialCapital   float64 `json:"initial_capital"`
	FinalEquity      float64 `json:"final_equity"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	WinRatePct       float64 `json:"win_rate_pct"`
	NumTrades        int     `json:"num_trades"`
}

// Summarize flattens a backtest result for commentary.
func Summarize(res *backtest.Result) Summary {
	return Summary{
		Symbol:           res.Symbol,
		Strategy:         res.StrategyLabel,
		Start:            res.Start.Format(core.DateLayout),
		End:              res.End.Format(core.DateLayout),
		InitialCapital:   res.InitialCapital,
		FinalEquity:      res.FinalEquity,
		TotalReturnPct:   res.Report.TotalReturnPct,
		BuyHoldReturnPct: res.BuyHoldReturnPct,
		SharpeRatio:      res.Report.SharpeRatio,
		MaxDrawdownPct:   res.Report.MaxDrawdownPct,
		WinRatePct:       res.Report.WinRatePct,
		NumTrades:        res.Report.NumTrades,
	}
}

// SystemPrompt frames every commentary request.
const SystemPrompt = `You are a quantitative analyst reviewing a single-strategy stock backtest. In two or three short paragraphs, comment on how the strategy performed against buy and hold, what the risk figures (Sharpe, drawdown, win rate) suggest, and close with one caution about reading too much into a single backtest. Plain prose, no markdown, no headings.`

// Prompt renders the summary into the user message. The output is
// deterministic so identical runs produce identical requests.
func Prompt(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Strategy: %s\n", s.Strategy)
	fmt.Fprintf(&b, "Symbol: %s\n", s.Symbol)
	fmt.Fprintf(&b, "Period: %s to %s\n", s.Start, s.End)
	fmt.Fprintf(&b, "Initial capital: %.2f\n", s.InitialCapital)
	fmt.Fprintf(&b, "Final equity: %.2f\n", s.FinalEquity)
	fmt.Fprintf(&b, "Total return: %.2f%%\n", s.TotalReturnPct)
	fmt.Fprintf(&b, "Buy and hold return: %.2f%%\n", s.BuyHoldReturnPct)
	fmt.Fprintf(&b, "Sharpe ratio: %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%\n", s.MaxDrawdownPct)
	fmt.Fprintf(&b, "Win rate: %.2f%%\n", s.WinRatePct)
	fmt.Fprintf(&b, "Trades: %d\n", s.NumTrades)
	return b.String()
}
