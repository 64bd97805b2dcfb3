package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omrozmn/x-ear-billing/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "xear-billing",
	Short: "x-ear billing - Turkish e-invoice engine for the X-Ear retail suite",
	Long: `xear-billing validates, computes and issues Turkish e-invoices
(e-Fatura / e-Arşiv) for hearing-aid sales: scenario and invoice-type
compatibility, TRY currency forcing, line and document tax arithmetic,
and the per-scenario mandatory fields (GTİP, SGK period, ÜTS license,
tevkifat, istisna).

Offline commands (validate, compute) work on draft JSON files; serve runs
the HTTP API backed by Postgres and Kafka.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("xear-billing executed")

		fmt.Println("xear-billing — Turkish e-invoice engine")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
