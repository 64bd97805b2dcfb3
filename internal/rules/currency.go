package rules

// CurrencyTRY is the only currency accepted for domestic-mandatory
// scenarios.
const CurrencyTRY = "TRY"

// tryOnlyScenarios force the document currency to TRY regardless of the
// invoice type: public administrations, e-Arşiv, passenger rebate sales and
// the catch-all "other" profile all settle in lira.
var tryOnlyScenarios = map[string]bool{
	ScenarioGovernment: true,
	ScenarioEArchive:   true,
	ScenarioPassenger:  true,
	ScenarioOther:      true,
}

// ForceCurrency applies the TRY-forcing rule: given the user's chosen
// currency and the scenario/type pair, it returns the currency the invoice
// must carry and, when the choice was overridden, a human-readable reason.
// It never fails; callers overwrite the field with the returned value.
func ForceCurrency(currency, scenario, invoiceType string) (string, string) {
	if tryOnlyScenarios[scenario] {
		if currency == CurrencyTRY {
			return CurrencyTRY, ""
		}
		return CurrencyTRY, ScenarioName(scenario) + " senaryosunda para birimi TRY olmalıdır"
	}
	if invoiceType == TypeSGK {
		if currency == CurrencyTRY {
			return CurrencyTRY, ""
		}
		return CurrencyTRY, "SGK faturalarında para birimi TRY olmalıdır"
	}
	return currency, ""
}

// CurrencyForced reports whether the scenario/type pair pins the currency
// to TRY.
func CurrencyForced(scenario, invoiceType string) bool {
	return tryOnlyScenarios[scenario] || invoiceType == TypeSGK
}
