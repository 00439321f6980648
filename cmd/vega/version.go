// cmd/vega/version.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information. Populated at build-time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("VEGA %s\n", Version)
		fmt.Printf("  commit: %s\n", GitCommit)
		fmt.Printf("  built:  %s\n", BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
