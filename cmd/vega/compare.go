// cmd/vega/compare.go
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/app"
	"github.com/newthinker/vega/internal/backtest"
	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/config"
)

var (
	compareStrategy strategyFlags
	compareSymbols  []string
	compareStart    string
	compareEnd      string
	compareCapital  float64
	compareSource   string
	compareOffline  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one strategy across several symbols",
	Long:  "Run the same strategy over several symbols concurrently and rank them by total return.",
	RunE:  runCompareCmd,
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareSymbols, "symbols", nil, "Symbols to compare (default: popular list)")
	compareStrategy.register(compareCmd)
	compareCmd.Flags().StringVar(&compareStart, "start", "", "Start date YYYY-MM-DD")
	compareCmd.Flags().StringVar(&compareEnd, "end", "", "End date YYYY-MM-DD")
	compareCmd.Flags().Float64Var(&compareCapital, "capital", 0, "Initial capital")
	compareCmd.Flags().StringVar(&compareSource, "source", "", "Data source (yahoo or stooq)")
	compareCmd.Flags().BoolVar(&compareOffline, "offline", false, "Use cached data only, no network")

	rootCmd.AddCommand(compareCmd)
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, cfg *config.Config, log *zap.Logger) error {
		sc, err := compareStrategy.resolve(cfg, a.Presets())
		if err != nil {
			return err
		}

		start, end, err := window(cfg, compareStart, compareEnd)
		if err != nil {
			return err
		}

		capital := compareCapital
		if capital == 0 {
			capital = cfg.Backtest.InitialCapital
		}

		symbols := compareSymbols
		if len(symbols) == 0 {
			symbols = collector.PopularSymbols()
		}
		for i, s := range symbols {
			symbols[i] = strings.ToUpper(strings.TrimSpace(s))
		}

		eng, err := a.EngineFor(compareSource)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		results := eng.RunMany(ctx, symbols, backtest.Request{
			Strategy:       sc,
			Start:          start,
			End:            end,
			InitialCapital: capital,
			Offline:        compareOffline || cfg.Data.Offline,
		})

		// Rank by total return, failed symbols at the bottom.
		sort.SliceStable(results, func(i, j int) bool {
			ri, rj := results[i].Result, results[j].Result
			if (ri == nil) != (rj == nil) {
				return ri != nil
			}
			if ri == nil {
				return false
			}
			return ri.Report.TotalReturnPct > rj.Report.TotalReturnPct
		})

		fmt.Printf("=== VEGA Compare: %s ===\n", sc.Label())
		fmt.Printf("Period: %s to %s\n\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
		printComparison(results)

		if len(results) > 0 && results[0].Result != nil {
			best := results[0].Result
			fmt.Printf("\nBest performer: %s (%s%%)\n", best.Symbol, signed(best.Report.TotalReturnPct))
		}
		return nil
	})
}

func printComparison(results []backtest.Comparison) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tRETURN %\tB&H %\tSHARPE\tMAX DD %\tWIN %\tTRADES\t")
	fmt.Fprintln(w, "------\t--------\t-----\t------\t--------\t-----\t------\t")
	for _, c := range results {
		if c.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\t\n", c.Symbol, c.Err)
			continue
		}
		r := c.Result
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.1f\t%d\t\n",
			c.Symbol,
			signed(r.Report.TotalReturnPct),
			signed(r.BuyHoldReturnPct),
			r.Report.SharpeRatio,
			r.Report.MaxDrawdownPct,
			r.Report.WinRatePct,
			r.Report.NumTrades)
	}
	w.Flush()
}
