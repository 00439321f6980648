package advisor

import (
	"strings"
	"testing"
	"time"

	"github.com/newthinker/vega/internal/backtest"
)

func sampleSummary() Summary {
	return Summary{
		Symbol:           "AAPL",
		Strategy:         "SMA Crossover (20/50)",
		Start:            "2022-01-01",
		End:              "2023-12-31",
		InitialCapital:   10000,
		FinalEquity:      12500,
		TotalReturnPct:   25,
		BuyHoldReturnPct: 18.2,
		SharpeRatio:      1.1,
		MaxDrawdownPct:   8.5,
		WinRatePct:       60,
		NumTrades:        5,
	}
}

func TestPrompt_Deterministic(t *testing.T) {
	s := sampleSummary()
	if Prompt(s) != Prompt(s) {
		t.Error("expected identical prompts for identical summaries")
	}
}

func TestPrompt_ContainsFigures(t *testing.T) {
	p := Prompt(sampleSummary())

	for _, want := range []string{
		"Symbol: AAPL",
		"Strategy: SMA Crossover (20/50)",
		"Period: 2022-01-01 to 2023-12-31",
		"Total return: 25.00%",
		"Buy and hold return: 18.20%",
		"Sharpe ratio: 1.10",
		"Max drawdown: 8.50%",
		"Trades: 5",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestSummarize(t *testing.T) {
	res := &backtest.Result{
		Symbol:         "MSFT",
		StrategyLabel:  "RSI (14)",
		Start:          time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		FinalEquity:    9800,
		Report: backtest.Report{
			TotalReturnPct: -2,
			SharpeRatio:    -0.3,
			MaxDrawdownPct: 12,
			WinRatePct:     40,
			NumTrades:      10,
		},
		BuyHoldReturnPct: 5,
	}

	s := Summarize(res)
	if s.Symbol != "MSFT" {
		t.Errorf("expected symbol MSFT, got %s", s.Symbol)
	}
	if s.Strategy != "RSI (14)" {
		t.Errorf("expected strategy label, got %s", s.Strategy)
	}
	if s.Start != "2022-01-01" || s.End != "2023-12-31" {
		t.Errorf("expected formatted dates, got %s..%s", s.Start, s.End)
	}
	if s.TotalReturnPct != -2 || s.NumTrades != 10 {
		t.Errorf("report scalars not carried over: %+v", s)
	}
	if s.BuyHoldReturnPct != 5 {
		t.Errorf("expected buy-hold 5, got %f", s.BuyHoldReturnPct)
	}
}
