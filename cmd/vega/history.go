// cmd/vega/history.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/app"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/storage/history"
)

var (
	historyLimit    int
	historySymbol   string
	historyStrategy string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent backtest runs",
	Long:  "List recent backtest runs recorded in the run history, most recent first.",
	RunE:  runHistoryCmd,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVar(&historySymbol, "symbol", "", "Only show runs for this symbol")
	historyCmd.Flags().StringVar(&historyStrategy, "strategy", "", "Only show runs for this strategy kind")

	rootCmd.AddCommand(historyCmd)
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, cfg *config.Config, log *zap.Logger) error {
		store := a.History()
		if store == nil {
			return fmt.Errorf("run history is disabled in the config")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		records, err := store.List(ctx, history.ListFilter{
			Symbol:   strings.ToUpper(strings.TrimSpace(historySymbol)),
			Strategy: historyStrategy,
			Limit:    historyLimit,
		})
		if err != nil {
			return fmt.Errorf("listing history: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSYMBOL\tSTRATEGY\tRETURN %\tSHARPE\tMAX DD %\tTRADES\t")
		fmt.Fprintln(w, "----\t------\t--------\t--------\t------\t--------\t------\t")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%d\t\n",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.Symbol,
				r.Label,
				signed(r.TotalReturnPct),
				r.SharpeRatio,
				r.MaxDrawdownPct,
				r.NumTrades)
		}
		return w.Flush()
	})
}
