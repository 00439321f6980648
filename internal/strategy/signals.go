package strategy

import (
	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/indicator"
)

// Generate maps a price series to one signal per bar for the configured
// strategy. The result is aligned with the input: same length, same
// dates, and the signal at bar i depends only on bars up to i. A series
// shorter than the strategy warm-up yields all HOLD.
func Generate(bars []core.Bar, cfg Config) ([]core.Signal, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindSMA:
		return crossoverSignals(bars, indicator.NewSMA(cfg.ShortWindow), indicator.NewSMA(cfg.LongWindow)), nil
	case KindEMA:
		return crossoverSignals(bars, indicator.NewEMA(cfg.ShortWindow), indicator.NewEMA(cfg.LongWindow)), nil
	default:
		return rsiSignals(bars, cfg), nil
	}
}

// average is the accumulator contract shared by the SMA and EMA types.
type average interface {
	Add(v float64) (float64, bool)
}

// crossoverSignals emits BUY when the short average crosses above the
// long one and SELL when it crosses below, evaluated on consecutive
// bars. The first bar with both averages defined has no prior bar to
// cross from and emits HOLD. SELL is evaluated first: the exit wins if
// both conditions ever held on one bar.
func crossoverSignals(bars []core.Bar, short, long average) []core.Signal {
	signals := make([]core.Signal, len(bars))
	var prevShort, prevLong float64
	havePrev := false

	for i, bar := range bars {
		s, okShort := short.Add(bar.Close)
		l, okLong := long.Add(bar.Close)

		action := core.ActionHold
		if okShort && okLong {
			if havePrev {
				switch {
				case prevShort >= prevLong && s < l:
					action = core.ActionSell
				case prevShort <= prevLong && s > l:
					action = core.ActionBuy
				}
			}
			prevShort, prevLong = s, l
			havePrev = true
		}
		signals[i] = core.Signal{Date: bar.Date, Action: action}
	}
	return signals
}

// rsiSignals emits BUY when RSI crosses from at or above the oversold
// threshold to below it, and SELL when it crosses from at or below the
// overbought threshold to above it.
func rsiSignals(bars []core.Bar, cfg Config) []core.Signal {
	signals := make([]core.Signal, len(bars))
	rsi := indicator.NewRSI(cfg.Period)
	var prev float64
	havePrev := false

	for i, bar := range bars {
		v, ok := rsi.Add(bar.Close)

		action := core.ActionHold
		if ok {
			if havePrev {
				switch {
				case prev <= cfg.Overbought && v > cfg.Overbought:
					action = core.ActionSell
				case prev >= cfg.Oversold && v < cfg.Oversold:
					action = core.ActionBuy
				}
			}
			prev = v
			havePrev = true
		}
		signals[i] = core.Signal{Date: bar.Date, Action: action}
	}
	return signals
}
