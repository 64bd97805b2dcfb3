package cmd

import (
	"github.com/spf13/cobra"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/logger"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

var computeCmd = &cobra.Command{
	Use:   "compute [draft-file]",
	Short: "Compute line and document totals for an invoice draft",
	Long: `Compute derives every monetary field of a draft: per-line subtotal,
discount, tax base, VAT and total, then the document aggregates including
the prorated document discount, the tevkifat withholding split and the
payable amount. Return invoices are recomputed with VAT forced to zero.

The output is the draft with derived lines plus the totals block, in JSON.
Rule violations are included but do not fail the command; this is the
advisory path used while a draft is being edited.`,
	Example: `  # Print computed draft and totals
  xear-billing compute draft.json

  # Save to a file
  xear-billing compute draft.json -o computed.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCompute,
}

// computeReport is the JSON output of the compute command.
type computeReport struct {
	Draft      *models.InvoiceDraft `json:"draft"`
	Totals     models.InvoiceTotals `json:"totals"`
	Violations []billing.Violation  `json:"violations"`
	Warnings   []string             `json:"warnings,omitempty"`
}

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runCompute(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("compute")

	outputPath, _ := cmd.Flags().GetString("output")

	draft, err := loadDraft(args[0])
	if err != nil {
		return err
	}

	forced, _ := rules.ForceCurrency(draft.Currency, draft.Scenario, draft.Type)
	draft.Currency = forced
	draft.Type = rules.ResetTypeIfIllegal(draft.Scenario, draft.Type)

	totals := billing.ComputeTotals(draft)
	report := computeReport{
		Draft:      draft,
		Totals:     totals,
		Violations: billing.ValidateDraft(draft),
		Warnings:   billing.ReconcileTotals(totals),
	}
	if report.Violations == nil {
		report.Violations = []billing.Violation{}
	}

	log.Info().
		Str("file", args[0]).
		Str("payable", totals.Payable.String()).
		Int("lines", len(draft.Lines)).
		Int("violations", len(report.Violations)).
		Msg("Draft computed")

	return writeReport(outputPath, report)
}
