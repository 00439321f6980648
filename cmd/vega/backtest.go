// cmd/vega/backtest.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/app"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/core"
	"github.com/newthinker/vega/internal/strategy"
)

const runTimeout = 5 * time.Minute

// strategyFlags is the strategy selection shared by backtest and compare.
type strategyFlags struct {
	preset     string
	kind       string
	short      int
	long       int
	period     int
	oversold   float64
	overbought float64
}

func (f *strategyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "Strategy preset name")
	cmd.Flags().StringVar(&f.kind, "strategy", "", "Strategy kind: sma, ema or rsi")
	cmd.Flags().IntVar(&f.short, "short", 0, "Short window for crossover strategies")
	cmd.Flags().IntVar(&f.long, "long", 0, "Long window for crossover strategies")
	cmd.Flags().IntVar(&f.period, "period", 0, "Lookback period for rsi")
	cmd.Flags().Float64Var(&f.oversold, "oversold", 0, "Buy threshold for rsi")
	cmd.Flags().Float64Var(&f.overbought, "overbought", 0, "Sell threshold for rsi")
}

// resolve picks the strategy: an explicit preset wins, then inline
// flags, then the configured default preset.
func (f *strategyFlags) resolve(cfg *config.Config, presets strategy.Presets) (strategy.Config, error) {
	if f.preset != "" {
		return presets.Resolve(f.preset)
	}
	if f.kind != "" {
		sc := strategy.Config{
			Kind:        strategy.Kind(f.kind),
			ShortWindow: f.short,
			LongWindow:  f.long,
			Period:      f.period,
			Oversold:    f.oversold,
			Overbought:  f.overbought,
		}.Normalized()
		if err := sc.Validate(); err != nil {
			return strategy.Config{}, err
		}
		return sc, nil
	}
	return presets.Resolve(cfg.Backtest.Preset)
}

// window resolves the date range from flags, falling back to the
// configured defaults for whichever end is not given.
func window(cfg *config.Config, startFlag, endFlag string) (time.Time, time.Time, error) {
	start, end, err := cfg.Backtest.StartEnd()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startFlag != "" {
		start, err = time.Parse(core.DateLayout, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if endFlag != "" {
		end, err = time.Parse(core.DateLayout, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

var (
	backtestStrategy strategyFlags
	backtestSymbol   string
	backtestStart    string
	backtestEnd      string
	backtestCapital  float64
	backtestSource   string
	backtestOffline  bool
	backtestJSON     bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy against historical data",
	Long:  "Run one strategy over a symbol's daily history and show how the simulated portfolio performed.",
	RunE:  runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestStrategy.register(backtestCmd)
	backtestCmd.Flags().StringVar(&backtestStart, "start", "", "Start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "End date YYYY-MM-DD")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "Initial capital")
	backtestCmd.Flags().StringVar(&backtestSource, "source", "", "Data source (yahoo or stooq)")
	backtestCmd.Flags().BoolVar(&backtestOffline, "offline", false, "Use cached data only, no network")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "Print the full result as JSON")

	backtestCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, cfg *config.Config, log *zap.Logger) error {
		sc, err := backtestStrategy.resolve(cfg, a.Presets())
		if err != nil {
			return err
		}

		start, end, err := window(cfg, backtestStart, backtestEnd)
		if err != nil {
			return err
		}

		capital := backtestCapital
		if capital == 0 {
			capital = cfg.Backtest.InitialCapital
		}

		eng, err := a.EngineFor(backtestSource)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := eng.Run(ctx, backtest.Request{
			Symbol:         strings.ToUpper(strings.TrimSpace(backtestSymbol)),
			Strategy:       sc,
			Start:          start,
			End:            end,
			InitialCapital: capital,
			Offline:        backtestOffline || cfg.Data.Offline,
		})
		if err != nil {
			return err
		}

		if backtestJSON {
			return printJSON(res)
		}
		printResult(res)
		return nil
	})
}

func printResult(res *backtest.Result) {
	fmt.Println("=== VEGA Backtest ===")
	fmt.Printf("Symbol:   %s\n", res.Symbol)
	fmt.Printf("Strategy: %s\n", res.StrategyLabel)
	fmt.Printf("Period:   %s to %s (%d bars)\n",
		res.Start.Format(core.DateLayout), res.End.Format(core.DateLayout), res.Bars)
	fmt.Println()

	fmt.Printf("Initial capital:   %.2f\n", res.InitialCapital)
	fmt.Printf("Final equity:      %.2f\n", res.FinalEquity)
	fmt.Printf("Total return:      %s%%\n", signed(res.Report.TotalReturnPct))
	fmt.Printf("Buy & hold:        %s%%\n", signed(res.BuyHoldReturnPct))
	fmt.Printf("Sharpe ratio:      %.2f\n", res.Report.SharpeRatio)
	fmt.Printf("Sortino ratio:     %.2f\n", res.SortinoRatio)
	fmt.Printf("Max drawdown:      %.2f%%\n", res.Report.MaxDrawdownPct)
	fmt.Printf("Ann. volatility:   %.2f%%\n", res.AnnualizedVolatility)
	fmt.Printf("Win rate:          %.1f%%\n", res.Report.WinRatePct)
	fmt.Printf("Trades:            %d\n", res.Report.NumTrades)

	if len(res.Trades) > 0 {
		fmt.Println()
		printTrades(res.Trades)
	}
	if p := res.OpenPosition; p != nil {
		fmt.Printf("\nOpen position: %d shares since %s at %.2f\n",
			p.Shares, p.EntryDate.Format(core.DateLayout), p.EntryPrice)
	}
}

func printTrades(trades []backtest.Trade) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENTRY\tEXIT\tSHARES\tENTRY PX\tEXIT PX\tP&L\tP&L %\t")
	fmt.Fprintln(w, "-----\t----\t------\t--------\t-------\t---\t-----\t")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%s\t%s\t\n",
			t.EntryDate.Format(core.DateLayout),
			t.ExitDate.Format(core.DateLayout),
			t.Shares, t.EntryPrice, t.ExitPrice,
			signed(t.PnL), signed(t.PnLPct))
	}
	w.Flush()
}

// signed formats a value with an explicit sign so gains and losses
// read apart in the tables.
func signed(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
