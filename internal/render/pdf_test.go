package render_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omrozmn/x-ear-billing/internal/render"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleInput() render.Input {
	return render.Input{
		Invoice: &models.InvoiceDraft{
			ID:            uuid.New(),
			InvoiceNumber: "XER2026000000001",
			Scenario:      rules.ScenarioBasic,
			Type:          rules.TypeSale,
			Currency:      "TRY",
			IssueDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Lines: []models.ProductLine{
				{
					Name:      "İşitme cihazı pili (6'lı)",
					Quantity:  dec("4"),
					UnitPrice: dec("150"),
					VATRate:   dec("20"),
					Subtotal:  dec("600"),
					TaxBase:   dec("600"),
					TaxAmount: dec("120"),
					Total:     dec("720"),
				},
			},
		},
		Totals: models.InvoiceTotals{
			LineSubtotal: dec("600"),
			TaxBase:      dec("600"),
			TaxAmount:    dec("120"),
			GrossTotal:   dec("720"),
			Payable:      dec("720"),
		},
		Party: &models.Party{
			Name:  "Ayşe Yılmaz",
			TaxID: "12345678901",
		},
	}
}

func TestPDF_ProducesDocument(t *testing.T) {
	out, err := render.PDF(sampleInput())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestPDF_RequiresInvoice(t *testing.T) {
	_, err := render.PDF(render.Input{})
	assert.Error(t, err)
}

func TestPDF_WithScenarioFootnotes(t *testing.T) {
	in := sampleInput()
	in.Invoice.Scenario = rules.ScenarioExport
	in.Invoice.Type = rules.TypeExportRegistered
	in.Invoice.Lines[0].GTIPCode = "90214000"
	in.Invoice.Withholding = &models.WithholdingDetails{Code: "601", Numerator: 4, Denominator: 10}
	in.Invoice.Exemption = &models.ExemptionDetails{Code: "301"}

	out, err := render.PDF(in)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(out[:5]))
}
