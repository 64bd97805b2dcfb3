package billing

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

var (
	gtipPattern      = regexp.MustCompile(`^[0-9]{8}$`)
	sgkPeriodPattern = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
	tevkifatPattern  = regexp.MustCompile(`^[0-9]{3}$`)
)

// ValidateDraft runs the full rule pipeline over a draft and returns every
// violation found. It never fails fast: the caller gets all problems at
// once, so a draft editor can surface them inline. An empty slice means the
// draft is submittable.
func ValidateDraft(draft *models.InvoiceDraft) []Violation {
	var out []Violation

	out = append(out, validateScenarioType(draft)...)
	out = append(out, validateCurrency(draft)...)
	out = append(out, validateLines(draft)...)
	out = append(out, validateDocumentDiscount(draft)...)
	out = append(out, validateSections(draft)...)

	return out
}

// validateScenarioType checks the codes against the compatibility table.
func validateScenarioType(draft *models.InvoiceDraft) []Violation {
	var out []Violation

	if !rules.KnownScenario(draft.Scenario) {
		out = append(out, violation("scenario", ErrScenarioUnknown,
			fmt.Sprintf("bilinmeyen senaryo kodu: %q", draft.Scenario)))
	}
	if !rules.KnownType(draft.Type) {
		out = append(out, violation("type", ErrTypeUnknown,
			fmt.Sprintf("bilinmeyen fatura tipi: %q", draft.Type)))
	}
	if len(out) > 0 {
		return out
	}

	if !rules.TypeAllowed(draft.Scenario, draft.Type) {
		out = append(out, violation("type", ErrTypeNotAllowed,
			fmt.Sprintf("%s senaryosunda %s tipi kullanılamaz",
				rules.ScenarioName(draft.Scenario), rules.TypeName(draft.Type))))
	}
	return out
}

// validateCurrency enforces the TRY-forcing rule as a hard constraint on
// submission. Draft editors apply rules.ForceCurrency and overwrite; a
// draft that still carries a foreign currency here was built by a client
// that skipped the rule.
func validateCurrency(draft *models.InvoiceDraft) []Violation {
	forced, reason := rules.ForceCurrency(draft.Currency, draft.Scenario, draft.Type)
	if forced != draft.Currency {
		return []Violation{violation("currency", ErrCurrencyForced, reason)}
	}
	if draft.Currency == "" {
		return []Violation{violation("currency", ErrCurrencyForced, "para birimi seçilmelidir")}
	}
	return nil
}

func validateLines(draft *models.InvoiceDraft) []Violation {
	if len(draft.Lines) == 0 {
		return []Violation{violation("lines", ErrNoLines, "fatura en az bir satır içermelidir")}
	}

	var out []Violation
	for i, line := range draft.Lines {
		field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }

		if !line.Quantity.IsPositive() {
			out = append(out, violation(field("quantity"), ErrInvalidQuantity,
				"miktar sıfırdan büyük olmalıdır"))
		}
		if line.UnitPrice.IsNegative() {
			out = append(out, violation(field("unit_price"), ErrInvalidUnitPrice,
				"birim fiyat negatif olamaz"))
		}

		// The discount floor is a violation, not a clamp.
		computed := ComputeLine(line, draft.Type == rules.TypeReturn)
		if computed.TaxBase.IsNegative() {
			out = append(out, violation(field("discount_value"), ErrDiscountExceedsBase,
				"iskonto tutarı satır tutarını aşamaz"))
		}

		if draft.Scenario == rules.ScenarioExport && !gtipPattern.MatchString(line.GTIPCode) {
			out = append(out, violation(field("gtip_code"), ErrInvalidGTIP,
				"GTİP kodu 8 haneli olmalıdır"))
		}
		if line.MedicalDevice && line.UTSLicenseNo == "" {
			out = append(out, violation(field("uts_license_no"), ErrMissingUTSLicense,
				"tıbbi cihaz satırı için ÜTS lisans numarası zorunludur"))
		}
	}
	return out
}

// validateDocumentDiscount enforces the discount floor at the document
// level: the resolved document discount cannot exceed the sum of the line
// tax bases. A breach is a violation, not a clamp, same as per-line.
func validateDocumentDiscount(draft *models.InvoiceDraft) []Violation {
	if draft.DiscountKind == models.DiscountNone {
		return nil
	}
	if draft.DiscountValue.IsNegative() {
		return []Violation{violation("discount_value", ErrDiscountExceedsBase,
			"belge iskontosu negatif olamaz")}
	}

	isReturn := draft.Type == rules.TypeReturn
	base := decimal.Zero
	for _, line := range draft.Lines {
		base = base.Add(ComputeLine(line, isReturn).TaxBase)
	}

	var discount decimal.Decimal
	switch draft.DiscountKind {
	case models.DiscountPercent:
		discount = round2(base.Mul(draft.DiscountValue).Div(hundred))
	case models.DiscountAmount:
		discount = round2(draft.DiscountValue)
	}
	if discount.GreaterThan(base) {
		return []Violation{violation("discount_value", ErrDiscountExceedsBase,
			"belge iskontosu fatura matrahını aşamaz")}
	}
	return nil
}

// validateSections checks that every payload the scenario/type pair makes
// mandatory is present and well formed.
func validateSections(draft *models.InvoiceDraft) []Violation {
	var out []Violation
	for _, section := range rules.RequiredSections(draft.Scenario, draft.Type) {
		switch section {
		case rules.SectionExport:
			out = append(out, validateExport(draft.Export)...)
		case rules.SectionSGK:
			out = append(out, validateSGK(draft.SGK)...)
		case rules.SectionGovernment:
			if draft.Government == nil || draft.Government.AgencyCode == "" {
				out = append(out, violation("government.agency_code", ErrMissingSection,
					"kamu faturası için kurum kodu zorunludur"))
			}
		case rules.SectionWithholding:
			out = append(out, validateWithholding(draft.Withholding)...)
		case rules.SectionExemption:
			if draft.Exemption == nil || draft.Exemption.Code == "" {
				out = append(out, violation("exemption.code", ErrMissingSection,
					"istisna kodu zorunludur"))
			}
		case rules.SectionSpecialTaxBase:
			out = append(out, validateSpecialTaxBase(draft)...)
		case rules.SectionReturn:
			if draft.Return == nil || draft.Return.OriginalNumber == "" || draft.Return.OriginalDate.IsZero() {
				out = append(out, violation("return", ErrMissingReturnRef,
					"iade faturası için orijinal fatura numarası ve tarihi zorunludur"))
			}
		}
	}
	return out
}

func validateExport(details *models.ExportDetails) []Violation {
	if details == nil {
		return []Violation{violation("export", ErrMissingSection,
			"ihracat faturası için sevkiyat bilgileri zorunludur")}
	}
	var out []Violation
	if details.DeliveryTerm == "" {
		out = append(out, violation("export.delivery_term", ErrMissingSection,
			"teslim şekli zorunludur"))
	}
	if details.ShipmentMode == "" {
		out = append(out, violation("export.shipment_mode", ErrMissingSection,
			"taşıma şekli zorunludur"))
	}
	if details.DestinationISO == "" {
		out = append(out, violation("export.destination_iso", ErrMissingSection,
			"varış ülkesi zorunludur"))
	}
	return out
}

func validateSGK(details *models.SGKDetails) []Violation {
	if details == nil {
		return []Violation{violation("sgk", ErrMissingSection,
			"SGK faturası için dönem bilgileri zorunludur")}
	}
	var out []Violation
	if !sgkPeriodPattern.MatchString(details.Period) {
		out = append(out, violation("sgk.period", ErrInvalidSGKPeriod,
			"SGK dönemi YYYY-AA biçiminde olmalıdır"))
	}
	if details.FacilityCode == "" {
		out = append(out, violation("sgk.facility_code", ErrMissingSection,
			"SGK tesis kodu zorunludur"))
	}
	if details.FileNumber == "" {
		out = append(out, violation("sgk.file_number", ErrMissingSection,
			"SGK dosya numarası zorunludur"))
	}
	return out
}

func validateWithholding(details *models.WithholdingDetails) []Violation {
	if details == nil {
		return []Violation{violation("withholding", ErrMissingSection,
			"tevkifatlı fatura için tevkifat bilgileri zorunludur")}
	}
	var out []Violation
	if !tevkifatPattern.MatchString(details.Code) {
		out = append(out, violation("withholding.code", ErrInvalidWithholding,
			"tevkifat kodu 3 haneli olmalıdır"))
	}
	if details.Denominator <= 0 || details.Numerator <= 0 || details.Numerator > details.Denominator {
		out = append(out, violation("withholding.numerator", ErrInvalidWithholding,
			"tevkifat oranı 0 ile 1 arasında olmalıdır"))
	}
	return out
}

func validateSpecialTaxBase(draft *models.InvoiceDraft) []Violation {
	if draft.SpecialTaxBase == nil || draft.SpecialTaxBase.Code == "" {
		return []Violation{violation("special_tax_base", ErrMissingSection,
			"özel matrah faturası için matrah kodu zorunludur")}
	}
	var out []Violation
	if !draft.SpecialTaxBase.Amount.IsPositive() {
		out = append(out, violation("special_tax_base.amount", ErrMissingSection,
			"özel matrah tutarı sıfırdan büyük olmalıdır"))
	} else {
		// The special base cannot exceed what the lines actually carry.
		base := decimal.Zero
		for _, line := range draft.Lines {
			base = base.Add(ComputeLine(line, false).TaxBase)
		}
		if draft.SpecialTaxBase.Amount.GreaterThan(base) {
			out = append(out, violation("special_tax_base.amount", ErrDiscountExceedsBase,
				"özel matrah tutarı fatura matrahını aşamaz"))
		}
	}
	return out
}
