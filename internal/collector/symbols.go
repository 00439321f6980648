package collector

import (
	"regexp"

	"github.com/newthinker/vega/internal/core"
)

// validSymbol matches plain US tickers like AAPL and BRK-B plus suffixed
// listings like 0700.HK.
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]{0,9}$`)

// ValidateSymbol checks a symbol for fetchable format.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return core.WrapErrorf(core.ErrSymbolInvalid, "empty symbol")
	}
	if !validSymbol.MatchString(symbol) {
		return core.WrapErrorf(core.ErrSymbolInvalid, "%q", symbol)
	}
	return nil
}
