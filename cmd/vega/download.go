// cmd/vega/download.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/app"
	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/core"
)

var (
	downloadStart   string
	downloadEnd     string
	downloadPopular bool
	downloadForce   bool
	downloadList    bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [symbols...]",
	Short: "Prefetch daily data into the local cache",
	Long:  "Download daily bars for the given symbols and store them in the parquet cache for offline use.",
	RunE:  runDownloadCmd,
}

func init() {
	downloadCmd.Flags().StringVar(&downloadStart, "start", "", "Start date YYYY-MM-DD")
	downloadCmd.Flags().StringVar(&downloadEnd, "end", "", "End date YYYY-MM-DD")
	downloadCmd.Flags().BoolVar(&downloadPopular, "popular", false, "Download the popular symbol list")
	downloadCmd.Flags().BoolVar(&downloadForce, "force", false, "Re-download even when the range is cached")
	downloadCmd.Flags().BoolVar(&downloadList, "list", false, "List cached series instead of downloading")

	rootCmd.AddCommand(downloadCmd)
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, cfg *config.Config, log *zap.Logger) error {
		if downloadList {
			return listCached(a)
		}

		symbols := args
		if downloadPopular {
			symbols = collector.PopularSymbols()
		}
		if len(symbols) == 0 {
			return fmt.Errorf("no symbols given: pass symbols as arguments or use --popular")
		}

		start, end, err := window(cfg, downloadStart, downloadEnd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		var failed int
		for _, sym := range symbols {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			n, err := a.Download(ctx, sym, start, end, downloadForce)
			if err != nil {
				failed++
				fmt.Printf("%s: failed: %v\n", sym, err)
				continue
			}
			fmt.Printf("%s: %d bars\n", sym, n)
		}

		fmt.Printf("\nDownloaded %d of %d symbols.\n", len(symbols)-failed, len(symbols))
		if failed == len(symbols) {
			return fmt.Errorf("all %d downloads failed", len(symbols))
		}
		return nil
	})
}

func listCached(a *app.App) error {
	entries, err := a.Cache().List()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSTART\tEND\tFILE\t")
	fmt.Fprintln(w, "------\t-----\t---\t----\t")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			e.Symbol,
			e.Start.Format(core.DateLayout),
			e.End.Format(core.DateLayout),
			e.Path)
	}
	return w.Flush()
}
