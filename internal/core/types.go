package core

import (
	"math"
	"time"
)

// Bar represents one daily OHLCV candlestick.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal is the decision emitted for exactly one bar of a price series.
type Signal struct {
	Date   time.Time `json:"date"`
	Action Action    `json:"action"`
}

// ValidateSeries checks a price series for simulation readiness: finite
// prices, strictly positive closes, non-negative volume, and strictly
// increasing dates. Any violation returns ErrDataQuality with detail.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return WrapErrorf(ErrDataQuality, "non-finite price at %s", b.Date.Format(DateLayout))
			}
			if v < 0 {
				return WrapErrorf(ErrDataQuality, "negative price at %s", b.Date.Format(DateLayout))
			}
		}
		if b.Close <= 0 {
			return WrapErrorf(ErrDataQuality, "non-positive close at %s", b.Date.Format(DateLayout))
		}
		if b.Volume < 0 {
			return WrapErrorf(ErrDataQuality, "negative volume at %s", b.Date.Format(DateLayout))
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return WrapErrorf(ErrDataQuality, "dates not strictly increasing at %s", b.Date.Format(DateLayout))
		}
	}
	return nil
}

// Closes extracts the closing prices of a series in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// DateLayout is the calendar-date format used across config, cache
// filenames, and API payloads.
const DateLayout = "2006-01-02"
