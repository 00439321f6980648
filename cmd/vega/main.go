// cmd/vega/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/app"
	"github.com/newthinker/vega/internal/config"
	"github.com/newthinker/vega/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vega",
	Short: "VEGA - stock strategy backtesting",
	Long: `VEGA fetches daily stock data, runs trading strategies against it
and reports how a simulated portfolio would have performed. Downloaded
series are cached locally so repeated runs stay fast and offline-capable.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// withApp loads configuration, builds the application and hands it to fn.
// Every command that needs data or engines goes through here so config
// handling and teardown stay in one place.
func withApp(fn func(a *app.App, cfg *config.Config, log *zap.Logger) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a, cfg, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
