package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omrozmn/x-ear-billing/internal/rules"
)

var allScenarios = []string{
	rules.ScenarioBasic,
	rules.ScenarioCommercial,
	rules.ScenarioEArchive,
	rules.ScenarioExport,
	rules.ScenarioPassenger,
	rules.ScenarioGovernment,
	rules.ScenarioOther,
}

var allTypes = []string{
	rules.TypeSale,
	rules.TypeReturn,
	rules.TypeWithholding,
	rules.TypeExemption,
	rules.TypeSpecialTaxBase,
	rules.TypeExportRegistered,
	rules.TypeSGK,
	rules.TypePublic,
}

func TestForceCurrency_TRYOnlyPairs(t *testing.T) {
	tryScenarios := map[string]bool{
		rules.ScenarioGovernment: true,
		rules.ScenarioEArchive:   true,
		rules.ScenarioPassenger:  true,
		rules.ScenarioOther:      true,
	}

	// Property: the forced currency is TRY iff the pair matches the rule
	// table, for every scenario/type combination.
	for _, scenario := range allScenarios {
		for _, invoiceType := range allTypes {
			forced, _ := rules.ForceCurrency("USD", scenario, invoiceType)
			shouldForce := tryScenarios[scenario] || invoiceType == rules.TypeSGK
			if shouldForce {
				assert.Equal(t, "TRY", forced,
					"scenario %s type %s must force TRY", scenario, invoiceType)
			} else {
				assert.Equal(t, "USD", forced,
					"scenario %s type %s must keep the chosen currency", scenario, invoiceType)
			}
			assert.Equal(t, shouldForce, rules.CurrencyForced(scenario, invoiceType))
		}
	}
}

func TestForceCurrency_NoMessageWhenAlreadyTRY(t *testing.T) {
	forced, reason := rules.ForceCurrency("TRY", rules.ScenarioGovernment, rules.TypeSale)
	assert.Equal(t, "TRY", forced)
	assert.Empty(t, reason, "no notice when the user already chose TRY")
}

func TestForceCurrency_MessageOnOverride(t *testing.T) {
	forced, reason := rules.ForceCurrency("EUR", rules.ScenarioBasic, rules.TypeSGK)
	assert.Equal(t, "TRY", forced)
	assert.NotEmpty(t, reason)
}

func TestAllowedTypes_Export(t *testing.T) {
	assert.Equal(t, []string{rules.TypeExportRegistered}, rules.AllowedTypes(rules.ScenarioExport))
}

func TestAllowedTypes_Government(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{
			rules.TypeSale,
			rules.TypeExportRegistered,
			rules.TypeExemption,
			rules.TypeSpecialTaxBase,
			rules.TypePublic,
		},
		rules.AllowedTypes(rules.ScenarioGovernment))
}

func TestAllowedTypes_DefaultScenariosShareOneList(t *testing.T) {
	reference := rules.AllowedTypes(rules.ScenarioBasic)
	require.NotEmpty(t, reference)

	for _, scenario := range []string{
		rules.ScenarioCommercial,
		rules.ScenarioEArchive,
		rules.ScenarioPassenger,
		rules.ScenarioOther,
	} {
		assert.Equal(t, reference, rules.AllowedTypes(scenario),
			"unrestricted scenario %s must use the shared list", scenario)
	}

	// The public-administration type is only legal under the government
	// scenario.
	assert.NotContains(t, reference, rules.TypePublic)
}

func TestTypeAllowed_MatchesAllowedTypes(t *testing.T) {
	for _, scenario := range allScenarios {
		allowed := rules.AllowedTypes(scenario)
		set := map[string]bool{}
		for _, code := range allowed {
			set[code] = true
		}
		for _, invoiceType := range allTypes {
			assert.Equal(t, set[invoiceType], rules.TypeAllowed(scenario, invoiceType),
				"scenario %s type %s", scenario, invoiceType)
		}
	}
}

func TestResetTypeIfIllegal(t *testing.T) {
	// A sale invoice survives a switch to the government scenario.
	assert.Equal(t, rules.TypeSale,
		rules.ResetTypeIfIllegal(rules.ScenarioGovernment, rules.TypeSale))

	// A return invoice does not survive a switch to export: reset, not error.
	assert.Equal(t, "",
		rules.ResetTypeIfIllegal(rules.ScenarioExport, rules.TypeReturn))

	// An empty selection stays empty.
	assert.Equal(t, "", rules.ResetTypeIfIllegal(rules.ScenarioBasic, ""))
}

func TestRequiredSections(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		invType  string
		want     []string
	}{
		{"plain sale", rules.ScenarioBasic, rules.TypeSale, nil},
		{"export", rules.ScenarioExport, rules.TypeExportRegistered,
			[]string{rules.SectionExport, rules.SectionExemption}},
		{"government sale", rules.ScenarioGovernment, rules.TypeSale,
			[]string{rules.SectionGovernment}},
		{"sgk", rules.ScenarioCommercial, rules.TypeSGK, []string{rules.SectionSGK}},
		{"withholding", rules.ScenarioBasic, rules.TypeWithholding,
			[]string{rules.SectionWithholding}},
		{"exemption", rules.ScenarioBasic, rules.TypeExemption,
			[]string{rules.SectionExemption}},
		{"special tax base", rules.ScenarioBasic, rules.TypeSpecialTaxBase,
			[]string{rules.SectionSpecialTaxBase}},
		{"return", rules.ScenarioBasic, rules.TypeReturn, []string{rules.SectionReturn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.RequiredSections(tt.scenario, tt.invType))
		})
	}
}

func TestKnownCodesAndNames(t *testing.T) {
	for _, scenario := range allScenarios {
		assert.True(t, rules.KnownScenario(scenario))
		assert.NotEqual(t, scenario, rules.ScenarioName(scenario))
	}
	for _, invoiceType := range allTypes {
		assert.True(t, rules.KnownType(invoiceType))
	}
	assert.False(t, rules.KnownScenario("99"))
	assert.Equal(t, "99", rules.ScenarioName("99"))
	assert.False(t, rules.KnownType("x"))
}
