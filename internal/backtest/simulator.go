package backtest

import (
	"math"
	"time"

	"github.com/newthinker/vega/internal/core"
)

// Simulate replays a signal series over its price series bar by bar,
// starting flat with the given capital. BUY while flat buys
// floor(cash/close) shares at the close; SELL while long liquidates at
// the close and records a trade; everything else leaves the position
// untouched. One equity point is emitted per bar after the signal is
// applied. A position still open after the last bar stays out of the
// trade log but is marked to market in the final equity point.
func Simulate(bars []core.Bar, signals []core.Signal, initialCapital float64) (*Simulation, error) {
	if initialCapital <= 0 {
		return nil, core.WrapErrorf(core.ErrConfigInvalid, "initial capital must be positive, got %.2f", initialCapital)
	}
	if len(signals) != len(bars) {
		return nil, core.WrapErrorf(core.ErrAlignment, "%d signals for %d bars", len(signals), len(bars))
	}
	for i := range bars {
		if !signals[i].Date.Equal(bars[i].Date) {
			return nil, core.WrapErrorf(core.ErrAlignment, "date mismatch at bar %d: bar %s, signal %s",
				i, bars[i].Date.Format(core.DateLayout), signals[i].Date.Format(core.DateLayout))
		}
	}

	cash := initialCapital
	var shares int64
	var entryDate time.Time
	var entryPrice float64

	equity := make([]EquityPoint, 0, len(bars))
	var trades []Trade

	for i, bar := range bars {
		switch signals[i].Action {
		case core.ActionBuy:
			if shares == 0 {
				qty := int64(math.Floor(cash / bar.Close))
				// Too little cash for a single share is not an error,
				// the position simply stays flat.
				if qty > 0 {
					shares = qty
					entryDate = bar.Date
					entryPrice = bar.Close
					cash -= float64(qty) * bar.Close
				}
			}
		case core.ActionSell:
			if shares > 0 {
				cash += float64(shares) * bar.Close
				trades = append(trades, Trade{
					EntryDate:  entryDate,
					EntryPrice: entryPrice,
					ExitDate:   bar.Date,
					ExitPrice:  bar.Close,
					Shares:     shares,
					PnL:        float64(shares) * (bar.Close - entryPrice),
					PnLPct:     (bar.Close/entryPrice - 1) * 100,
				})
				shares = 0
			}
		}

		equity = append(equity, EquityPoint{Date: bar.Date, Value: cash + float64(shares)*bar.Close})
	}

	sim := &Simulation{
		Equity:      equity,
		Trades:      trades,
		FinalEquity: initialCapital,
	}
	if len(equity) > 0 {
		sim.FinalEquity = equity[len(equity)-1].Value
	}
	if shares > 0 {
		sim.Open = &OpenPosition{Shares: shares, EntryDate: entryDate, EntryPrice: entryPrice}
	}
	return sim, nil
}
