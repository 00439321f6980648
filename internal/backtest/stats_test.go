package backtest

import (
	"math"
	"testing"
	"time"
)

func equityCurve(values []float64) []EquityPoint {
	base := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]EquityPoint, len(values))
	for i, v := range values {
		points[i] = EquityPoint{Date: base.AddDate(0, 0, i), Value: v}
	}
	return points
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCalculate_TotalReturn(t *testing.T) {
	report := Calculate(equityCurve([]float64{1000, 1200, 1500}), nil, 1000)
	if !closeTo(report.TotalReturnPct, 50) {
		t.Errorf("total return = %.4f, want 50", report.TotalReturnPct)
	}
}

func TestCalculate_FlatCurve(t *testing.T) {
	// Flat equity: zero volatility produces a zero Sharpe, not NaN.
	report := Calculate(equityCurve([]float64{1000, 1000, 1000, 1000}), nil, 1000)

	if report.TotalReturnPct != 0 {
		t.Errorf("total return = %.4f, want 0", report.TotalReturnPct)
	}
	if report.Volatility != 0 {
		t.Errorf("volatility = %.6f, want 0", report.Volatility)
	}
	if report.SharpeRatio != 0 {
		t.Errorf("sharpe = %.4f, want 0", report.SharpeRatio)
	}
	if report.MaxDrawdownPct != 0 {
		t.Errorf("max drawdown = %.4f, want 0", report.MaxDrawdownPct)
	}
	if report.WinRatePct != 0 || report.NumTrades != 0 {
		t.Errorf("zero trades should report zero win rate, got %.1f%% over %d", report.WinRatePct, report.NumTrades)
	}
}

func TestCalculate_SharpeAndVolatility(t *testing.T) {
	// Returns 0.04 and 0: mean 0.02, population std 0.02,
	// Sharpe = 1 * sqrt(252).
	report := Calculate(equityCurve([]float64{100, 104, 104}), nil, 100)

	if !closeTo(report.Volatility, 0.02) {
		t.Errorf("volatility = %.6f, want 0.02 (population std)", report.Volatility)
	}
	if !closeTo(report.SharpeRatio, math.Sqrt(252)) {
		t.Errorf("sharpe = %.6f, want sqrt(252)=%.6f", report.SharpeRatio, math.Sqrt(252))
	}
}

func TestCalculate_MaxDrawdown(t *testing.T) {
	// Peak 120, trough 80: (120-80)/120 = 33.33%.
	report := Calculate(equityCurve([]float64{100, 120, 90, 110, 80}), nil, 100)
	if !closeTo(report.MaxDrawdownPct, 100.0/3) {
		t.Errorf("max drawdown = %.4f, want 33.3333", report.MaxDrawdownPct)
	}
}

func TestCalculate_SkipsZeroEquity(t *testing.T) {
	// The return after a zero-value point is undefined and skipped:
	// only one return (-1.0) survives, so std and Sharpe are 0.
	report := Calculate(equityCurve([]float64{100, 0, 50}), nil, 100)
	if report.Volatility != 0 || report.SharpeRatio != 0 {
		t.Errorf("volatility=%.4f sharpe=%.4f, want both 0", report.Volatility, report.SharpeRatio)
	}
}

func TestCalculate_WinRate(t *testing.T) {
	trades := []Trade{
		{PnL: 50},
		{PnL: -30},
		{PnL: 70},
	}
	report := Calculate(equityCurve([]float64{100, 100}), trades, 100)

	if report.NumTrades != 3 {
		t.Errorf("num trades = %d, want 3", report.NumTrades)
	}
	if !closeTo(report.WinRatePct, 200.0/3) {
		t.Errorf("win rate = %.4f, want 66.6667", report.WinRatePct)
	}
}

func TestCalculate_SingleWinningTrade(t *testing.T) {
	trades := []Trade{{PnL: 500, PnLPct: 50}}
	report := Calculate(equityCurve([]float64{1000, 1500}), trades, 1000)

	if report.WinRatePct != 100 {
		t.Errorf("win rate = %.2f, want 100", report.WinRatePct)
	}
	if !closeTo(report.TotalReturnPct, 50) {
		t.Errorf("total return = %.4f, want 50", report.TotalReturnPct)
	}
}

func TestCalculate_EmptyCurve(t *testing.T) {
	report := Calculate(nil, nil, 1000)
	if report != (Report{}) {
		t.Errorf("empty inputs should produce a zero report, got %+v", report)
	}
}

func TestBuyHoldReturnPct(t *testing.T) {
	bars := testBars([]float64{100, 120, 150})
	if got := BuyHoldReturnPct(bars); !closeTo(got, 50) {
		t.Errorf("buy-hold = %.4f, want 50", got)
	}
	if got := BuyHoldReturnPct(nil); got != 0 {
		t.Errorf("empty series buy-hold = %.4f, want 0", got)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	got := AnnualizedVolatility(equityCurve([]float64{100, 104, 104}))
	want := 0.02 * math.Sqrt(252) * 100
	if !closeTo(got, want) {
		t.Errorf("annualized volatility = %.6f, want %.6f", got, want)
	}
}

func TestSortinoRatio(t *testing.T) {
	t.Run("no downside", func(t *testing.T) {
		if got := SortinoRatio(equityCurve([]float64{100, 104, 108})); got != 0 {
			t.Errorf("sortino = %.4f, want 0 without negative returns", got)
		}
	})

	t.Run("mixed returns", func(t *testing.T) {
		// Returns about -0.02, -0.04, +0.03: downside std 0.01, mean
		// -0.01, so sortino is -sqrt(252).
		curve := equityCurve([]float64{100, 98, 94.08, 96.9024})
		got := SortinoRatio(curve)
		want := -math.Sqrt(252)
		if math.Abs(got-want) > 1e-3 {
			t.Errorf("sortino = %.6f, want %.6f", got, want)
		}
	})
}
