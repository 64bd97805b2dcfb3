package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

// Money amounts on issued invoices carry two fraction digits. Every derived
// value (discount, tax, line total) is rounded half-up at the step it is
// produced, so downstream sums work on already-rounded figures.
const moneyScale = 2

var hundred = decimal.NewFromInt(100)

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyScale)
}

// ComputeLine derives the monetary fields of a product line:
//
//	subtotal = quantity × unitPrice
//	discount = flat amount, or subtotal × rate / 100
//	taxBase  = subtotal − discount
//	tax      = taxBase × vatRate / 100
//	total    = taxBase + tax
//
// Return invoices (isReturn) force the VAT rate to zero before computing.
// The input line is not modified.
func ComputeLine(line models.ProductLine, isReturn bool) models.ProductLine {
	out := line

	out.Subtotal = round2(line.Quantity.Mul(line.UnitPrice))

	switch line.DiscountKind {
	case models.DiscountPercent:
		out.DiscountAmount = round2(out.Subtotal.Mul(line.DiscountValue).Div(hundred))
	case models.DiscountAmount:
		out.DiscountAmount = round2(line.DiscountValue)
	default:
		out.DiscountAmount = decimal.Zero
	}

	out.TaxBase = out.Subtotal.Sub(out.DiscountAmount)

	rate := line.VATRate
	if isReturn {
		rate = decimal.Zero
		out.VATRate = decimal.Zero
	}
	out.TaxAmount = round2(out.TaxBase.Mul(rate).Div(hundred))
	out.Total = out.TaxBase.Add(out.TaxAmount)

	return out
}

// ComputeTotals recomputes every line of the draft and aggregates them into
// document-level totals. A document discount is prorated over the line tax
// bases, and each line's tax is rescaled against its reduced base so that
// taxBase + tax still equals the gross total. Tevkifat invoices split the
// computed tax into a withheld share and a payable remainder.
//
// The draft's lines are replaced with their computed counterparts.
func ComputeTotals(draft *models.InvoiceDraft) models.InvoiceTotals {
	isReturn := draft.Type == rules.TypeReturn

	var totals models.InvoiceTotals
	totals.LineSubtotal = decimal.Zero
	totals.LineDiscounts = decimal.Zero
	taxBaseSum := decimal.Zero

	for i := range draft.Lines {
		draft.Lines[i] = ComputeLine(draft.Lines[i], isReturn)
		totals.LineSubtotal = totals.LineSubtotal.Add(draft.Lines[i].Subtotal)
		totals.LineDiscounts = totals.LineDiscounts.Add(draft.Lines[i].DiscountAmount)
		taxBaseSum = taxBaseSum.Add(draft.Lines[i].TaxBase)
	}

	switch draft.DiscountKind {
	case models.DiscountPercent:
		totals.DocumentDiscount = round2(taxBaseSum.Mul(draft.DiscountValue).Div(hundred))
	case models.DiscountAmount:
		totals.DocumentDiscount = round2(draft.DiscountValue)
	default:
		totals.DocumentDiscount = decimal.Zero
	}

	totals.TaxBase = taxBaseSum.Sub(totals.DocumentDiscount)

	// Rescale each line's tax against its share of the document discount.
	// With no document discount the factor is 1 and the line taxes sum
	// unchanged.
	totals.TaxAmount = decimal.Zero
	if taxBaseSum.IsPositive() && totals.DocumentDiscount.IsPositive() {
		factor := totals.TaxBase.Div(taxBaseSum)
		for _, line := range draft.Lines {
			scaledBase := line.TaxBase.Mul(factor)
			totals.TaxAmount = totals.TaxAmount.Add(round2(scaledBase.Mul(line.VATRate).Div(hundred)))
		}
	} else {
		for _, line := range draft.Lines {
			totals.TaxAmount = totals.TaxAmount.Add(line.TaxAmount)
		}
	}

	totals.GrossTotal = totals.TaxBase.Add(totals.TaxAmount)

	totals.Withholding = decimal.Zero
	if draft.Type == rules.TypeWithholding && draft.Withholding != nil && draft.Withholding.Denominator > 0 {
		num := decimal.NewFromInt(int64(draft.Withholding.Numerator))
		den := decimal.NewFromInt(int64(draft.Withholding.Denominator))
		totals.Withholding = round2(totals.TaxAmount.Mul(num).Div(den))
	}
	totals.Payable = totals.GrossTotal.Sub(totals.Withholding)

	return totals
}

// ReconcileTotals cross-checks aggregated totals the way a reviewer would:
// tax base plus tax must equal the gross total, and the payable amount must
// equal gross minus withholding, both within a 0.02 tolerance for rounding
// drift. Discrepancies come back as human-readable warnings rather than
// errors.
func ReconcileTotals(totals models.InvoiceTotals) []string {
	tolerance := decimal.New(2, -moneyScale) // 0.02

	var warnings []string
	if diff := totals.TaxBase.Add(totals.TaxAmount).Sub(totals.GrossTotal).Abs(); diff.GreaterThan(tolerance) {
		warnings = append(warnings, fmt.Sprintf(
			"gross total mismatch: base %s + tax %s differs from gross %s by %s",
			totals.TaxBase, totals.TaxAmount, totals.GrossTotal, diff))
	}
	if diff := totals.GrossTotal.Sub(totals.Withholding).Sub(totals.Payable).Abs(); diff.GreaterThan(tolerance) {
		warnings = append(warnings, fmt.Sprintf(
			"payable mismatch: gross %s − withholding %s differs from payable %s by %s",
			totals.GrossTotal, totals.Withholding, totals.Payable, diff))
	}
	return warnings
}
