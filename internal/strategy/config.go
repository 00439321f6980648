package strategy

import (
	"fmt"

	"github.com/newthinker/vega/internal/core"
)

// Kind selects a strategy variant. The set is closed: signal generation
// dispatches over exactly these three.
type Kind string

const (
	KindSMA Kind = "sma"
	KindEMA Kind = "ema"
	KindRSI Kind = "rsi"
)

// Default RSI thresholds.
const (
	DefaultOversold   = 30.0
	DefaultOverbought = 70.0
)

// Config holds the parameters for one strategy variant. ShortWindow and
// LongWindow apply to the crossover kinds, Period and the thresholds to
// RSI.
type Config struct {
	Kind        Kind    `json:"kind" yaml:"kind" mapstructure:"kind"`
	ShortWindow int     `json:"short_window,omitempty" yaml:"short_window" mapstructure:"short_window"`
	LongWindow  int     `json:"long_window,omitempty" yaml:"long_window" mapstructure:"long_window"`
	Period      int     `json:"period,omitempty" yaml:"period" mapstructure:"period"`
	Oversold    float64 `json:"oversold,omitempty" yaml:"oversold" mapstructure:"oversold"`
	Overbought  float64 `json:"overbought,omitempty" yaml:"overbought" mapstructure:"overbought"`
}

// Normalized returns the config with default RSI thresholds filled in
// when both are unset.
func (c Config) Normalized() Config {
	if c.Kind == KindRSI && c.Oversold == 0 && c.Overbought == 0 {
		c.Oversold = DefaultOversold
		c.Overbought = DefaultOverbought
	}
	return c
}

// Validate checks the parameters for the selected kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindSMA, KindEMA:
		if c.ShortWindow <= 0 || c.LongWindow <= 0 {
			return core.WrapErrorf(core.ErrConfigInvalid, "windows must be positive, got short=%d long=%d", c.ShortWindow, c.LongWindow)
		}
		if c.ShortWindow >= c.LongWindow {
			return core.WrapErrorf(core.ErrConfigInvalid, "short_window (%d) must be less than long_window (%d)", c.ShortWindow, c.LongWindow)
		}
	case KindRSI:
		if c.Period <= 0 {
			return core.WrapErrorf(core.ErrConfigInvalid, "period must be positive, got %d", c.Period)
		}
		if c.Oversold < 0 || c.Oversold > 100 || c.Overbought < 0 || c.Overbought > 100 {
			return core.WrapErrorf(core.ErrConfigInvalid, "thresholds must be within 0-100, got oversold=%.1f overbought=%.1f", c.Oversold, c.Overbought)
		}
		if c.Oversold >= c.Overbought {
			return core.WrapErrorf(core.ErrConfigInvalid, "oversold (%.1f) must be less than overbought (%.1f)", c.Oversold, c.Overbought)
		}
	default:
		return core.WrapErrorf(core.ErrConfigInvalid, "unknown strategy kind %q", c.Kind)
	}
	return nil
}

// Label returns a human-readable description for reports.
func (c Config) Label() string {
	switch c.Kind {
	case KindSMA:
		return fmt.Sprintf("SMA Crossover (%d/%d)", c.ShortWindow, c.LongWindow)
	case KindEMA:
		return fmt.Sprintf("EMA Crossover (%d/%d)", c.ShortWindow, c.LongWindow)
	case KindRSI:
		return fmt.Sprintf("RSI (%d, %.0f/%.0f)", c.Period, c.Oversold, c.Overbought)
	}
	return string(c.Kind)
}

// MinBars returns the series length below which every signal is HOLD:
// the crossover kinds need both averages defined on two consecutive
// bars, RSI needs two consecutive defined values.
func (c Config) MinBars() int {
	switch c.Kind {
	case KindSMA, KindEMA:
		return c.LongWindow + 1
	case KindRSI:
		return c.Period + 2
	}
	return 0
}
