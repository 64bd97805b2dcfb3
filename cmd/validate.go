package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/logger"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate [draft-file]",
	Short: "Check an invoice draft JSON file against the e-invoice ruleset",
	Long: `Validate runs the full rule pipeline over a draft: scenario and
invoice-type compatibility, the TRY currency rule, line arithmetic
constraints, and every per-scenario mandatory field (GTİP codes on export
lines, SGK period and facility, ÜTS licenses on medical devices, tevkifat
and istisna codes).

All violations are reported at once in JSON form, each addressed by a field
path such as "lines[2].gtip_code". The command exits non-zero when the
draft is not submittable unless --advisory is set.`,
	Example: `  # Report violations for a draft
  xear-billing validate draft.json

  # Advisory mode: always exit zero, just print the report
  xear-billing validate draft.json --advisory

  # Write the report to a file
  xear-billing validate draft.json -o report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

// validateReport is the JSON output of the validate command.
type validateReport struct {
	Valid          bool                `json:"valid"`
	Violations     []billing.Violation `json:"violations"`
	CurrencyNotice string              `json:"currency_notice,omitempty"`
	AllowedTypes   []string            `json:"allowed_types"`
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	validateCmd.Flags().Bool("advisory", false, "Exit zero even when the draft has violations")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	outputPath, _ := cmd.Flags().GetString("output")
	advisory, _ := cmd.Flags().GetBool("advisory")

	draft, err := loadDraft(args[0])
	if err != nil {
		return err
	}

	forced, notice := rules.ForceCurrency(draft.Currency, draft.Scenario, draft.Type)
	draft.Currency = forced
	draft.Type = rules.ResetTypeIfIllegal(draft.Scenario, draft.Type)

	violations := billing.ValidateDraft(draft)
	report := validateReport{
		Valid:          len(violations) == 0,
		Violations:     violations,
		CurrencyNotice: notice,
		AllowedTypes:   rules.AllowedTypes(draft.Scenario),
	}
	if report.Violations == nil {
		report.Violations = []billing.Violation{}
	}

	log.Info().
		Str("file", args[0]).
		Str("scenario", draft.Scenario).
		Str("type", draft.Type).
		Int("violations", len(violations)).
		Msg("Draft validated")

	if err := writeReport(outputPath, report); err != nil {
		return err
	}
	if !report.Valid && !advisory {
		return fmt.Errorf("draft has %d violation(s)", len(violations))
	}
	return nil
}

func loadDraft(path string) (*models.InvoiceDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft file: %w", err)
	}
	var draft models.InvoiceDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("parse draft file: %w", err)
	}
	return &draft, nil
}

func writeReport(path string, report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
