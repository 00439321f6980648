package backtest

import (
	"math"

	"github.com/newthinker/vega/internal/core"
)

const tradingDays = 252

// Calculate computes the performance report from an equity curve and
// closed-trade log. Daily returns are consecutive-point ratios (points
// after a zero-value predecessor are skipped); volatility is the
// population standard deviation of those returns; Sharpe is defined as
// zero for a flat curve rather than NaN.
func Calculate(equity []EquityPoint, trades []Trade, initialCapital float64) Report {
	r := Report{NumTrades: len(trades)}

	if initialCapital > 0 && len(equity) > 0 {
		r.TotalReturnPct = (equity[len(equity)-1].Value/initialCapital - 1) * 100
	}

	returns := dailyReturns(equity)
	std := popStdDev(returns)
	r.Volatility = std
	if std > 0 {
		r.SharpeRatio = mean(returns) / std * math.Sqrt(tradingDays)
	}

	r.MaxDrawdownPct = maxDrawdownPct(equity)

	var wins int
	for _, t := range trades {
		if t.IsWin() {
			wins++
		}
	}
	if len(trades) > 0 {
		r.WinRatePct = 100 * float64(wins) / float64(len(trades))
	}

	return r
}

// BuyHoldReturnPct is the return of buying at the first close and
// holding through the last.
func BuyHoldReturnPct(bars []core.Bar) float64 {
	if len(bars) == 0 || bars[0].Close == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close/bars[0].Close - 1) * 100
}

// AnnualizedVolatility scales the population standard deviation of
// daily returns to a 252-day year, as a percentage.
func AnnualizedVolatility(equity []EquityPoint) float64 {
	return popStdDev(dailyReturns(equity)) * math.Sqrt(tradingDays) * 100
}

// SortinoRatio is the annualized mean daily return over the standard
// deviation of the negative returns only. Defined as zero when there
// are no negative returns.
func SortinoRatio(equity []EquityPoint) float64 {
	returns := dailyReturns(equity)

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	dd := popStdDev(downside)
	if dd == 0 {
		return 0
	}
	return mean(returns) / dd * math.Sqrt(tradingDays)
}

// maxDrawdownPct finds the largest percentage decline from the running
// peak of the equity curve.
func maxDrawdownPct(equity []EquityPoint) float64 {
	var maxDD, peak float64
	for i, p := range equity {
		if i == 0 || p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func dailyReturns(equity []EquityPoint) []float64 {
	var out []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}
		out = append(out, equity[i].Value/prev-1)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var variance float64
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	return math.Sqrt(variance / float64(len(xs)))
}
