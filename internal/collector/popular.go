package collector

// popular is the browsable symbol universe surfaced by the API and CLI.
// Large-cap US equities only; any valid symbol can still be requested
// directly.
var popular = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META",
	"TSLA", "NVDA", "JPM", "V", "WMT",
	"DIS", "NFLX", "PYPL", "INTC", "AMD",
}

// PopularSymbols returns the curated symbol list.
func PopularSymbols() []string {
	out := make([]string, len(popular))
	copy(out, popular)
	return out
}
