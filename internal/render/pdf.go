// Package render produces the printable PDF form of a submitted invoice.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

// cp1254Map is the cp1254 glyph descriptor from gofpdf's font directory,
// embedded because gofpdf only embeds cp1250 and cp1252 and would otherwise
// look for the file in the process working directory.
//
//go:embed cp1254.map
var cp1254Map string

// Input is the deterministic input for invoice rendering.
type Input struct {
	Invoice *models.InvoiceDraft
	Totals  models.InvoiceTotals
	Party   *models.Party

	// SellerName appears in the document header.
	SellerName string
}

// PDF renders the invoice to a PDF document.
func PDF(in Input) ([]byte, error) {
	if in.Invoice == nil {
		return nil, fmt.Errorf("render: invoice is required")
	}
	inv := in.Invoice

	pdf := gofpdf.New("P", "mm", "A4", "")
	// cp1254 covers the Turkish letters in names and rule messages.
	tr, err := gofpdf.UnicodeTranslator(strings.NewReader(cp1254Map))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	seller := in.SellerName
	if seller == "" {
		seller = "X-Ear İşitme Cihazları"
	}
	pdf.CellFormat(0, 10, tr(seller), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Fatura No: %s", inv.InvoiceNumber)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Tarih: %s", inv.IssueDate.Format("02.01.2006"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Senaryo: %s / Tip: %s",
		rules.ScenarioName(inv.Scenario), rules.TypeName(inv.Type))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Para Birimi: %s", inv.Currency)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if in.Party != nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, tr("Alıcı"), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 5, tr(in.Party.Name), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("VKN/TCKN: %s", in.Party.TaxID)), "", 1, "L", false, 0, "")
		if in.Party.Address != "" {
			pdf.CellFormat(0, 5, tr(in.Party.Address), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	writeLineTable(pdf, tr, inv)
	writeTotals(pdf, tr, in.Totals)
	writeFootnotes(pdf, tr, inv)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func writeLineTable(pdf *gofpdf.Fpdf, tr func(string) string, inv *models.InvoiceDraft) {
	headers := []string{"Mal/Hizmet", "Miktar", "Birim Fiyat", "İskonto", "KDV %", "KDV", "Tutar"}
	widths := []float64{60, 18, 25, 20, 15, 25, 27}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range inv.Lines {
		cells := []string{
			line.Name,
			line.Quantity.String(),
			line.UnitPrice.StringFixed(2),
			line.DiscountAmount.StringFixed(2),
			line.VATRate.String(),
			line.TaxAmount.StringFixed(2),
			line.Total.StringFixed(2),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeTotals(pdf *gofpdf.Fpdf, tr func(string) string, totals models.InvoiceTotals) {
	rows := []struct {
		label string
		value string
	}{
		{"Mal/Hizmet Toplamı", totals.LineSubtotal.StringFixed(2)},
		{"Satır İskontoları", totals.LineDiscounts.StringFixed(2)},
		{"Belge İskontosu", totals.DocumentDiscount.StringFixed(2)},
		{"KDV Matrahı", totals.TaxBase.StringFixed(2)},
		{"Hesaplanan KDV", totals.TaxAmount.StringFixed(2)},
		{"Vergiler Dahil Toplam", totals.GrossTotal.StringFixed(2)},
	}
	if totals.Withholding.IsPositive() {
		rows = append(rows,
			struct{ label, value string }{"Tevkifat", totals.Withholding.StringFixed(2)})
	}
	rows = append(rows,
		struct{ label, value string }{"Ödenecek Tutar", totals.Payable.StringFixed(2)})

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(130, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, tr(row.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, tr(row.value), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

// writeFootnotes prints the scenario-specific legends required on the
// printed form: GTİP codes on export lines, the SGK period block, the
// tevkifat legend.
func writeFootnotes(pdf *gofpdf.Fpdf, tr func(string) string, inv *models.InvoiceDraft) {
	pdf.SetFont("Helvetica", "I", 8)

	if inv.Scenario == rules.ScenarioExport {
		for _, line := range inv.Lines {
			if line.GTIPCode != "" {
				pdf.CellFormat(0, 5, tr(fmt.Sprintf("GTİP %s — %s", line.GTIPCode, line.Name)), "", 1, "L", false, 0, "")
			}
		}
	}
	if inv.SGK != nil {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("SGK Dönemi: %s  Tesis: %s  Dosya: %s",
			inv.SGK.Period, inv.SGK.FacilityCode, inv.SGK.FileNumber)), "", 1, "L", false, 0, "")
	}
	if inv.Withholding != nil {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Tevkifat Kodu %s (%d/%d)",
			inv.Withholding.Code, inv.Withholding.Numerator, inv.Withholding.Denominator)), "", 1, "L", false, 0, "")
	}
	if inv.Exemption != nil {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("İstisna Kodu: %s", inv.Exemption.Code)), "", 1, "L", false, 0, "")
	}
	if inv.Return != nil {
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("İade edilen fatura: %s (%s)",
			inv.Return.OriginalNumber, inv.Return.OriginalDate.Format("02.01.2006"))), "", 1, "L", false, 0, "")
	}
}
