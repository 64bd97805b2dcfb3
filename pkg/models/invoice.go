package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice lifecycle states.
const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusRejected  = "REJECTED"
)

// DiscountKind selects how a line (or document) discount is expressed.
const (
	DiscountNone    = ""
	DiscountPercent = "PERCENT" // discount = subtotal * rate / 100
	DiscountAmount  = "AMOUNT"  // discount = flat amount in invoice currency
)

// InvoiceDraft is an e-invoice as edited by the retailer before submission.
// Scenario and Type are GİB code strings; the optional detail payloads are
// mandatory or forbidden depending on the scenario/type pair — see the rules
// and billing packages.
type InvoiceDraft struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Scenario      string          `json:"scenario"`
	Type          string          `json:"type"`
	Currency      string          `json:"currency"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"` // to TRY; 1 for TRY invoices

	IssueDate time.Time `json:"issue_date"`
	PartyID   uuid.UUID `json:"party_id"`

	Lines []ProductLine `json:"lines"`

	// Document-level discount, applied to the sum of line tax bases.
	DiscountKind  string          `json:"discount_kind,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`

	Note   string `json:"note,omitempty"`
	Status string `json:"status"`

	// Scenario/type specific payloads. Nil when not applicable.
	Export         *ExportDetails         `json:"export,omitempty"`
	SGK            *SGKDetails            `json:"sgk,omitempty"`
	Government     *GovernmentDetails     `json:"government,omitempty"`
	Withholding    *WithholdingDetails    `json:"withholding,omitempty"`
	Exemption      *ExemptionDetails      `json:"exemption,omitempty"`
	SpecialTaxBase *SpecialTaxBaseDetails `json:"special_tax_base,omitempty"`
	Return         *ReturnDetails         `json:"return,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductLine is one sold item (typically a hearing aid, battery pack or a
// fitting service). Quantity, UnitPrice, the discount fields and VATRate are
// user input; the remaining amounts are derived by billing.ComputeLine.
type ProductLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`

	DiscountKind  string          `json:"discount_kind,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`

	VATRate decimal.Decimal `json:"vat_rate"` // percent, e.g. 10 for 10%

	// Export invoices: 8-digit customs tariff code.
	GTIPCode string `json:"gtip_code,omitempty"`

	// Medical devices carry a ÜTS registration.
	MedicalDevice  bool   `json:"medical_device,omitempty"`
	UTSLicenseNo   string `json:"uts_license_no,omitempty"`
	DeviceSerialNo string `json:"device_serial_no,omitempty"`

	// Derived amounts.
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxBase        decimal.Decimal `json:"tax_base"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// InvoiceTotals aggregates the derived line amounts at the document level.
type InvoiceTotals struct {
	LineSubtotal     decimal.Decimal `json:"line_subtotal"`
	LineDiscounts    decimal.Decimal `json:"line_discounts"`
	DocumentDiscount decimal.Decimal `json:"document_discount"`
	TaxBase          decimal.Decimal `json:"tax_base"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	GrossTotal       decimal.Decimal `json:"gross_total"`
	Withholding      decimal.Decimal `json:"withholding"`
	Payable          decimal.Decimal `json:"payable"`
}

// ExportDetails is required when the scenario is export ("3").
type ExportDetails struct {
	DeliveryTerm   string `json:"delivery_term"` // Incoterm, e.g. "CIF"
	ShipmentMode   string `json:"shipment_mode"` // GİB transport code, e.g. "1" sea
	PackageCount   int    `json:"package_count"`
	CarrierTaxID   string `json:"carrier_tax_id,omitempty"`
	DestinationISO string `json:"destination_iso"` // ISO 3166-1 alpha-2
}

// SGKDetails is required when the invoice type is SGK ("14").
type SGKDetails struct {
	Period       string `json:"period"`        // billing period, "YYYY-MM"
	FacilityCode string `json:"facility_code"` // SGK tesis kodu
	FileNumber   string `json:"file_number"`   // dosya numarası
}

// GovernmentDetails is required for the government scenario ("7").
type GovernmentDetails struct {
	AgencyCode string `json:"agency_code"` // kurum kodu
	BudgetCode string `json:"budget_code,omitempty"`
	ContractNo string `json:"contract_no,omitempty"`
}

// WithholdingDetails is required for tevkifat invoices (type "9").
// The withheld VAT share is Numerator/Denominator of the computed tax,
// e.g. 4/10 under code "601".
type WithholdingDetails struct {
	Code        string `json:"code"` // 3-digit GİB tevkifat code
	Numerator   int    `json:"numerator"`
	Denominator int    `json:"denominator"`
}

// ExemptionDetails is required for exemption invoices (type "11") and for
// export-registered sales (type "13").
type ExemptionDetails struct {
	Code   string `json:"code"` // GİB istisna kodu, e.g. "301"
	Reason string `json:"reason,omitempty"`
}

// SpecialTaxBaseDetails is required for özel matrah invoices (type "12").
type SpecialTaxBaseDetails struct {
	Amount decimal.Decimal `json:"amount"`
	Code   string          `json:"code"` // özel matrah reason code
}

// ReturnDetails is required for return invoices (type "1") and references
// the invoice being returned.
type ReturnDetails struct {
	OriginalNumber string    `json:"original_number"`
	OriginalDate   time.Time `json:"original_date"`
}
