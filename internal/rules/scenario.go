// Package rules holds the scenario / invoice-type compatibility ruleset for
// Turkish e-invoices: which invoice types are legal under each GİB scenario,
// when the document currency is forced to TRY, and which detail sections a
// scenario/type pair makes mandatory.
//
// The tables in this package are the single authoritative copy. Every
// surface (CLI, HTTP API, billing pipeline) reads them from here.
package rules

// Scenario codes as used on the GİB envelope.
const (
	ScenarioBasic      = "0"  // TEMELFATURA
	ScenarioCommercial = "1"  // TICARIFATURA
	ScenarioEArchive   = "2"  // EARSIVFATURA
	ScenarioExport     = "3"  // IHRACAT
	ScenarioPassenger  = "4"  // YOLCUBERABERFATURA
	ScenarioGovernment = "7"  // KAMU
	ScenarioOther      = "36" // DIGER
)

// Invoice type codes.
const (
	TypeSale             = "0"  // SATIS
	TypeReturn           = "1"  // IADE
	TypeWithholding      = "9"  // TEVKIFAT
	TypeExemption        = "11" // ISTISNA
	TypeSpecialTaxBase   = "12" // OZELMATRAH
	TypeExportRegistered = "13" // IHRACKAYITLI
	TypeSGK              = "14" // SGK
	TypePublic           = "27" // KAMUSATIS
)

var scenarioNames = map[string]string{
	ScenarioBasic:      "TEMELFATURA",
	ScenarioCommercial: "TICARIFATURA",
	ScenarioEArchive:   "EARSIVFATURA",
	ScenarioExport:     "IHRACAT",
	ScenarioPassenger:  "YOLCUBERABERFATURA",
	ScenarioGovernment: "KAMU",
	ScenarioOther:      "DIGER",
}

var typeNames = map[string]string{
	TypeSale:             "SATIS",
	TypeReturn:           "IADE",
	TypeWithholding:      "TEVKIFAT",
	TypeExemption:        "ISTISNA",
	TypeSpecialTaxBase:   "OZELMATRAH",
	TypeExportRegistered: "IHRACKAYITLI",
	TypeSGK:              "SGK",
	TypePublic:           "KAMUSATIS",
}

// defaultTypes is the allow-list for scenarios without a restriction of
// their own.
var defaultTypes = []string{
	TypeSale,
	TypeReturn,
	TypeWithholding,
	TypeExemption,
	TypeSpecialTaxBase,
	TypeExportRegistered,
	TypeSGK,
}

// restrictedTypes maps scenarios that narrow the legal invoice types.
// Export invoices must be export-registered; invoices to public
// administrations come from a fixed list.
var restrictedTypes = map[string][]string{
	ScenarioExport: {TypeExportRegistered},
	ScenarioGovernment: {
		TypeSale,
		TypeExportRegistered,
		TypeExemption,
		TypeSpecialTaxBase,
		TypePublic,
	},
}

// KnownScenario reports whether code is a recognised scenario.
func KnownScenario(code string) bool {
	_, ok := scenarioNames[code]
	return ok
}

// KnownType reports whether code is a recognised invoice type.
func KnownType(code string) bool {
	_, ok := typeNames[code]
	return ok
}

// ScenarioName returns the GİB profile name for a scenario code, or the
// code itself when unknown.
func ScenarioName(code string) string {
	if name, ok := scenarioNames[code]; ok {
		return name
	}
	return code
}

// TypeName returns the GİB name for an invoice type code, or the code
// itself when unknown.
func TypeName(code string) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return code
}

// AllowedTypes returns the invoice types legal under the given scenario.
// The returned slice is a copy; callers may reorder it.
func AllowedTypes(scenario string) []string {
	src := defaultTypes
	if restricted, ok := restrictedTypes[scenario]; ok {
		src = restricted
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// TypeAllowed reports whether invoiceType is legal under scenario.
func TypeAllowed(scenario, invoiceType string) bool {
	src := defaultTypes
	if restricted, ok := restrictedTypes[scenario]; ok {
		src = restricted
	}
	for _, t := range src {
		if t == invoiceType {
			return true
		}
	}
	return false
}

// ResetTypeIfIllegal returns the invoice type to keep after a scenario
// change: the current type when it remains legal, otherwise the empty
// string so the caller clears the selection. Matches the front-of-house
// behaviour of resetting rather than erroring.
func ResetTypeIfIllegal(scenario, invoiceType string) string {
	if invoiceType == "" || TypeAllowed(scenario, invoiceType) {
		return invoiceType
	}
	return ""
}

// Section identifiers for RequiredSections.
const (
	SectionExport         = "export"
	SectionSGK            = "sgk"
	SectionGovernment     = "government"
	SectionWithholding    = "withholding"
	SectionExemption      = "exemption"
	SectionSpecialTaxBase = "special_tax_base"
	SectionReturn         = "return"
)

// RequiredSections lists the detail payloads a scenario/type pair makes
// mandatory on the draft.
func RequiredSections(scenario, invoiceType string) []string {
	var out []string
	if scenario == ScenarioExport {
		out = append(out, SectionExport)
	}
	if scenario == ScenarioGovernment {
		out = append(out, SectionGovernment)
	}
	switch invoiceType {
	case TypeSGK:
		out = append(out, SectionSGK)
	case TypeWithholding:
		out = append(out, SectionWithholding)
	case TypeExemption, TypeExportRegistered:
		out = append(out, SectionExemption)
	case TypeSpecialTaxBase:
		out = append(out, SectionSpecialTaxBase)
	case TypeReturn:
		out = append(out, SectionReturn)
	}
	return out
}
