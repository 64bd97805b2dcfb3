package billing

import (
	"errors"
	"fmt"
)

// Sentinel rule violations. Callers match these with errors.Is to handle
// specific business failures programmatically.
var (
	// ErrScenarioUnknown is returned when the draft carries a scenario code
	// outside the GİB profile table.
	ErrScenarioUnknown = errors.New("unknown invoice scenario")

	// ErrTypeUnknown is returned when the draft carries an invoice type code
	// outside the GİB type table.
	ErrTypeUnknown = errors.New("unknown invoice type")

	// ErrTypeNotAllowed is returned when the invoice type is not in the
	// scenario's allow-list.
	ErrTypeNotAllowed = errors.New("invoice type not allowed for scenario")

	// ErrCurrencyForced is returned when the draft carries a currency other
	// than TRY under a TRY-only scenario/type pair.
	ErrCurrencyForced = errors.New("currency must be TRY for this invoice")

	// ErrMissingSection is returned when a scenario/type pair requires a
	// detail payload the draft does not carry.
	ErrMissingSection = errors.New("missing mandatory invoice section")

	// ErrNoLines is returned for drafts without product lines.
	ErrNoLines = errors.New("invoice has no product lines")

	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = errors.New("line quantity must be positive")

	// ErrInvalidUnitPrice is returned for negative unit prices.
	ErrInvalidUnitPrice = errors.New("line unit price cannot be negative")

	// ErrDiscountExceedsBase is returned when a discount is larger than the
	// amount it applies to.
	ErrDiscountExceedsBase = errors.New("discount exceeds the amount it applies to")

	// ErrInvalidGTIP is returned when an export line's customs tariff code
	// is not exactly 8 digits.
	ErrInvalidGTIP = errors.New("GTİP code must be 8 digits")

	// ErrInvalidSGKPeriod is returned when the SGK billing period is not in
	// YYYY-MM form.
	ErrInvalidSGKPeriod = errors.New("SGK period must be in YYYY-MM form")

	// ErrInvalidWithholding is returned for malformed tevkifat codes or
	// fractions.
	ErrInvalidWithholding = errors.New("invalid withholding code or fraction")

	// ErrMissingUTSLicense is returned when a medical-device line lacks its
	// ÜTS license number.
	ErrMissingUTSLicense = errors.New("medical device line requires a ÜTS license number")

	// ErrMissingReturnRef is returned when a return invoice does not
	// reference the original invoice.
	ErrMissingReturnRef = errors.New("return invoice must reference the original invoice")

	// ErrDraftInvalid is returned by Submit when the draft fails validation.
	ErrDraftInvalid = errors.New("invoice draft failed validation")

	// ErrInvoiceNotFound is returned when the requested invoice does not
	// exist in the store.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrPartyNotFound is returned when the referenced party does not exist.
	ErrPartyNotFound = errors.New("party not found")
)

// BillingError wraps errors with context about the failed operation.
type BillingError struct {
	// Op is the operation that failed (e.g., "Submit", "PreviewTotals").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *BillingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("billing: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("billing: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *BillingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is chains.
func (e *BillingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapBillingError wraps err as a BillingError unless it already is one.
func WrapBillingError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var be *BillingError
	if errors.As(err, &be) {
		return err
	}
	return &BillingError{Op: op, Err: err, Details: details}
}

// Violation is a single rule violation, addressed by a field path so API
// clients can attach it to the offending input (e.g. "lines[2].gtip_code").
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`

	err error
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Unwrap exposes the sentinel behind the violation.
func (v Violation) Unwrap() error {
	return v.err
}

func violation(field string, err error, message string) Violation {
	if message == "" {
		message = err.Error()
	}
	return Violation{Field: field, Message: message, err: err}
}
