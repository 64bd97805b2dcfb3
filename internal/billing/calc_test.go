package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

func TestComputeLine_Plain(t *testing.T) {
	line := billing.ComputeLine(models.ProductLine{
		Name:      "İşitme cihazı",
		Quantity:  dec("2"),
		UnitPrice: dec("15000"),
		VATRate:   dec("10"),
	}, false)

	assertMoney(t, "30000.00", line.Subtotal)
	assertMoney(t, "0.00", line.DiscountAmount)
	assertMoney(t, "30000.00", line.TaxBase)
	assertMoney(t, "3000.00", line.TaxAmount)
	assertMoney(t, "33000.00", line.Total)
}

func TestComputeLine_PercentDiscount(t *testing.T) {
	line := billing.ComputeLine(models.ProductLine{
		Quantity:      dec("1"),
		UnitPrice:     dec("1000"),
		DiscountKind:  models.DiscountPercent,
		DiscountValue: dec("15"),
		VATRate:       dec("20"),
	}, false)

	// 1000 − 150 = 850; 850 × 20% = 170; total 1020
	assertMoney(t, "150.00", line.DiscountAmount)
	assertMoney(t, "850.00", line.TaxBase)
	assertMoney(t, "170.00", line.TaxAmount)
	assertMoney(t, "1020.00", line.Total)
}

func TestComputeLine_FlatDiscount(t *testing.T) {
	line := billing.ComputeLine(models.ProductLine{
		Quantity:      dec("3"),
		UnitPrice:     dec("200"),
		DiscountKind:  models.DiscountAmount,
		DiscountValue: dec("50"),
		VATRate:       dec("10"),
	}, false)

	assertMoney(t, "600.00", line.Subtotal)
	assertMoney(t, "50.00", line.DiscountAmount)
	assertMoney(t, "550.00", line.TaxBase)
	assertMoney(t, "55.00", line.TaxAmount)
	assertMoney(t, "605.00", line.Total)
}

func TestComputeLine_ReturnForcesZeroVAT(t *testing.T) {
	line := billing.ComputeLine(models.ProductLine{
		Quantity:  dec("1"),
		UnitPrice: dec("500"),
		VATRate:   dec("20"),
	}, true)

	assert.True(t, line.VATRate.IsZero(), "stored rate must be reset to zero")
	assertMoney(t, "0.00", line.TaxAmount)
	assertMoney(t, "500.00", line.Total)
}

func TestComputeLine_RoundsHalfUp(t *testing.T) {
	// 3 × 33.333 = 99.999 → 100.00; tax 100.00 × 18% = 18.00
	line := billing.ComputeLine(models.ProductLine{
		Quantity:  dec("3"),
		UnitPrice: dec("33.333"),
		VATRate:   dec("18"),
	}, false)

	assertMoney(t, "100.00", line.Subtotal)
	assertMoney(t, "18.00", line.TaxAmount)

	// 0.125 at the rounding boundary goes up.
	boundary := billing.ComputeLine(models.ProductLine{
		Quantity:  dec("1"),
		UnitPrice: dec("0.125"),
		VATRate:   dec("0"),
	}, false)
	assertMoney(t, "0.13", boundary.Subtotal)
}

func TestComputeTotals_SumsLines(t *testing.T) {
	draft := &models.InvoiceDraft{
		Scenario: rules.ScenarioBasic,
		Type:     rules.TypeSale,
		Currency: "TRY",
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("1000"), VATRate: dec("10")},
			{Quantity: dec("2"), UnitPrice: dec("250"), VATRate: dec("20")},
		},
	}

	totals := billing.ComputeTotals(draft)

	assertMoney(t, "1500.00", totals.LineSubtotal)
	assertMoney(t, "1500.00", totals.TaxBase)
	assertMoney(t, "200.00", totals.TaxAmount) // 100 + 100
	assertMoney(t, "1700.00", totals.GrossTotal)
	assertMoney(t, "0.00", totals.Withholding)
	assertMoney(t, "1700.00", totals.Payable)
	assert.Empty(t, billing.ReconcileTotals(totals))

	// Lines are replaced with their computed counterparts.
	assertMoney(t, "1100.00", draft.Lines[0].Total)
	assertMoney(t, "600.00", draft.Lines[1].Total)
}

func TestComputeTotals_DocumentDiscountProrated(t *testing.T) {
	draft := &models.InvoiceDraft{
		Scenario:      rules.ScenarioBasic,
		Type:          rules.TypeSale,
		Currency:      "TRY",
		DiscountKind:  models.DiscountPercent,
		DiscountValue: dec("10"),
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("1000"), VATRate: dec("10")},
			{Quantity: dec("1"), UnitPrice: dec("1000"), VATRate: dec("20")},
		},
	}

	totals := billing.ComputeTotals(draft)

	assertMoney(t, "200.00", totals.DocumentDiscount)
	assertMoney(t, "1800.00", totals.TaxBase)
	// Each line's base shrinks to 900: tax = 90 + 180.
	assertMoney(t, "270.00", totals.TaxAmount)
	assertMoney(t, "2070.00", totals.GrossTotal)
	assert.Empty(t, billing.ReconcileTotals(totals))
}

func TestComputeTotals_DocumentDiscountAtFullBase(t *testing.T) {
	// A 100% document discount is the legal boundary: everything lands on
	// zero and the totals still reconcile.
	draft := &models.InvoiceDraft{
		Scenario:      rules.ScenarioBasic,
		Type:          rules.TypeSale,
		Currency:      "TRY",
		DiscountKind:  models.DiscountPercent,
		DiscountValue: dec("100"),
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("1000"), VATRate: dec("10")},
		},
	}

	totals := billing.ComputeTotals(draft)

	assertMoney(t, "1000.00", totals.DocumentDiscount)
	assertMoney(t, "0.00", totals.TaxBase)
	assertMoney(t, "0.00", totals.TaxAmount)
	assertMoney(t, "0.00", totals.GrossTotal)
	assertMoney(t, "0.00", totals.Payable)
	assert.Empty(t, billing.ReconcileTotals(totals))
	assert.Empty(t, billing.ValidateDraft(draft))
}

func TestComputeTotals_ExcessiveDocumentDiscountIsCaughtByValidation(t *testing.T) {
	// The arithmetic alone would go negative here; the validation pipeline
	// must flag the draft before those totals can be persisted.
	draft := &models.InvoiceDraft{
		Scenario:      rules.ScenarioBasic,
		Type:          rules.TypeSale,
		Currency:      "TRY",
		DiscountKind:  models.DiscountAmount,
		DiscountValue: dec("5000"),
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("1000"), VATRate: dec("10")},
		},
	}

	violations := billing.ValidateDraft(draft)
	require.Len(t, violations, 1)
	assert.Equal(t, "discount_value", violations[0].Field)

	totals := billing.ComputeTotals(draft)
	assert.True(t, totals.TaxBase.IsNegative(),
		"computation does not clamp; the violation is the guard")
}

func TestComputeTotals_WithholdingSplit(t *testing.T) {
	draft := &models.InvoiceDraft{
		Scenario: rules.ScenarioBasic,
		Type:     rules.TypeWithholding,
		Currency: "TRY",
		Withholding: &models.WithholdingDetails{
			Code:        "601",
			Numerator:   4,
			Denominator: 10,
		},
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("10000"), VATRate: dec("20")},
		},
	}

	totals := billing.ComputeTotals(draft)

	assertMoney(t, "2000.00", totals.TaxAmount)
	assertMoney(t, "800.00", totals.Withholding) // 2000 × 4/10
	assertMoney(t, "12000.00", totals.GrossTotal)
	assertMoney(t, "11200.00", totals.Payable)
	assert.Empty(t, billing.ReconcileTotals(totals))
}

func TestComputeTotals_ReturnInvoice(t *testing.T) {
	draft := &models.InvoiceDraft{
		Scenario: rules.ScenarioBasic,
		Type:     rules.TypeReturn,
		Currency: "TRY",
		Return: &models.ReturnDetails{
			OriginalNumber: "XER2025000000007",
		},
		Lines: []models.ProductLine{
			{Quantity: dec("1"), UnitPrice: dec("750"), VATRate: dec("20")},
		},
	}

	totals := billing.ComputeTotals(draft)

	require.Len(t, draft.Lines, 1)
	assert.True(t, draft.Lines[0].VATRate.IsZero())
	assertMoney(t, "0.00", totals.TaxAmount)
	assertMoney(t, "750.00", totals.GrossTotal)
}

func TestReconcileTotals_FlagsDrift(t *testing.T) {
	totals := models.InvoiceTotals{
		TaxBase:    dec("100.00"),
		TaxAmount:  dec("18.00"),
		GrossTotal: dec("120.00"), // should be 118.00
		Payable:    dec("120.00"),
	}
	warnings := billing.ReconcileTotals(totals)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "gross total mismatch")
}

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "XER2026000000042", billing.FormatInvoiceNumber("XER", 2026, 42))
	assert.Equal(t, "ABC2025000000001", billing.FormatInvoiceNumber("ABC", 2025, 1))
}
