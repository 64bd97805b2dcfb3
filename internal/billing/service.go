// Package billing implements the e-invoice rule engine: scenario/type
// compatibility, currency forcing, line and document tax arithmetic,
// per-scenario mandatory-field validation, and the submission pipeline that
// ties them to persistence and downstream event delivery.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omrozmn/x-ear-billing/internal/logger"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

// InvoiceStore persists submitted invoices.
type InvoiceStore interface {
	InsertInvoice(ctx context.Context, inv *models.InvoiceDraft, totals models.InvoiceTotals) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceDraft, models.InvoiceTotals, error)
	ListInvoices(ctx context.Context, status string, limit int) ([]models.InvoiceDraft, error)

	// NextSequence returns the next invoice serial for a number prefix and
	// year. Serials start at 1 and are never reused.
	NextSequence(ctx context.Context, prefix string, year int) (int64, error)
}

// PartyStore looks up and manages customer records.
type PartyStore interface {
	GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error)
	CreateParty(ctx context.Context, party *models.Party) error
	SearchParties(ctx context.Context, query string, limit int) ([]models.Party, error)
}

// SubmittedEvent is the payload published when an invoice is accepted,
// consumed by the GİB submission worker downstream.
type SubmittedEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Scenario      string    `json:"scenario"`
	Type          string    `json:"type"`
	Currency      string    `json:"currency"`
	Payable       string    `json:"payable"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Publisher delivers submitted-invoice events. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishSubmitted(ctx context.Context, event SubmittedEvent) error
}

// ValidationFailure is the error returned by Submit when the draft breaks
// one or more rules. It carries the full violation list.
type ValidationFailure struct {
	Violations []Violation
}

// Error implements the error interface.
func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("%v: %d violation(s)", ErrDraftInvalid, len(f.Violations))
}

// Is matches ErrDraftInvalid so callers can errors.Is without unpacking.
func (f *ValidationFailure) Is(target error) bool {
	return target == ErrDraftInvalid
}

// PreviewResult is the advisory output for a draft under edit: normalized
// draft, computed totals, and everything the editor should surface without
// blocking the user.
type PreviewResult struct {
	Draft          *models.InvoiceDraft `json:"draft"`
	Totals         models.InvoiceTotals `json:"totals"`
	Violations     []Violation          `json:"violations"`
	Warnings       []string             `json:"warnings,omitempty"`
	CurrencyNotice string               `json:"currency_notice,omitempty"`
	AllowedTypes   []string             `json:"allowed_types"`
}

// Service is the invoice engine facade used by the CLI and HTTP surfaces.
type Service struct {
	invoices  InvoiceStore
	parties   PartyStore
	publisher Publisher
	prefix    string
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a Service. publisher may be nil when event delivery is
// disabled; numberPrefix is the 3-letter serial prefix on generated invoice
// numbers.
func NewService(invoices InvoiceStore, parties PartyStore, publisher Publisher, numberPrefix string) *Service {
	if numberPrefix == "" {
		numberPrefix = "XER"
	}
	return &Service{
		invoices:  invoices,
		parties:   parties,
		publisher: publisher,
		prefix:    numberPrefix,
		now:       time.Now,
		log:       logger.WithComponent("billing-service"),
	}
}

// Preview normalizes and computes a draft without persisting it: the
// currency-forcing rule is applied, an invoice type made illegal by a
// scenario change is cleared, totals are derived, and every rule violation
// is reported. Nothing here fails the draft; this is the advisory path.
func (s *Service) Preview(ctx context.Context, draft *models.InvoiceDraft) (*PreviewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapBillingError("Preview", err, "")
	}

	forced, notice := rules.ForceCurrency(draft.Currency, draft.Scenario, draft.Type)
	draft.Currency = forced
	draft.Type = rules.ResetTypeIfIllegal(draft.Scenario, draft.Type)

	totals := ComputeTotals(draft)
	result := &PreviewResult{
		Draft:          draft,
		Totals:         totals,
		Violations:     ValidateDraft(draft),
		Warnings:       ReconcileTotals(totals),
		CurrencyNotice: notice,
		AllowedTypes:   rules.AllowedTypes(draft.Scenario),
	}

	s.log.Debug().
		Str("scenario", draft.Scenario).
		Str("type", draft.Type).
		Str("currency", draft.Currency).
		Int("lines", len(draft.Lines)).
		Int("violations", len(result.Violations)).
		Msg("Draft previewed")

	return result, nil
}

// Submit validates the draft as a hard gate, derives the totals, assigns an
// identity and serial number, persists the invoice and publishes the
// submitted event. A rule violation returns *ValidationFailure; the draft
// is untouched in the store. Event publishing is best-effort: a broker
// outage is logged and does not undo the submission, the GİB worker
// re-reads unsubmitted rows.
func (s *Service) Submit(ctx context.Context, draft *models.InvoiceDraft) (*models.InvoiceDraft, models.InvoiceTotals, error) {
	forced, _ := rules.ForceCurrency(draft.Currency, draft.Scenario, draft.Type)
	draft.Currency = forced

	if s.parties != nil && draft.PartyID != uuid.Nil {
		if _, err := s.parties.GetParty(ctx, draft.PartyID); err != nil {
			return nil, models.InvoiceTotals{}, WrapBillingError("Submit", err, "party lookup")
		}
	}

	if violations := ValidateDraft(draft); len(violations) > 0 {
		s.log.Warn().
			Str("scenario", draft.Scenario).
			Str("type", draft.Type).
			Int("violations", len(violations)).
			Msg("Draft rejected")
		return nil, models.InvoiceTotals{}, &ValidationFailure{Violations: violations}
	}

	totals := ComputeTotals(draft)

	now := s.now().UTC()
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	if draft.IssueDate.IsZero() {
		draft.IssueDate = now
	}
	if draft.InvoiceNumber == "" {
		seq, err := s.invoices.NextSequence(ctx, s.prefix, draft.IssueDate.Year())
		if err != nil {
			return nil, models.InvoiceTotals{}, WrapBillingError("Submit", err, "serial allocation")
		}
		draft.InvoiceNumber = FormatInvoiceNumber(s.prefix, draft.IssueDate.Year(), seq)
	}
	draft.Status = models.StatusSubmitted
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.invoices.InsertInvoice(ctx, draft, totals); err != nil {
		return nil, models.InvoiceTotals{}, WrapBillingError("Submit", err, "persist invoice")
	}

	s.publish(ctx, draft, totals)

	s.log.Info().
		Str("invoice_id", draft.ID.String()).
		Str("invoice_number", draft.InvoiceNumber).
		Str("scenario", draft.Scenario).
		Str("type", draft.Type).
		Str("payable", totals.Payable.String()).
		Msg("Invoice submitted")

	return draft, totals, nil
}

func (s *Service) publish(ctx context.Context, inv *models.InvoiceDraft, totals models.InvoiceTotals) {
	if s.publisher == nil {
		return
	}
	event := SubmittedEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Scenario:      inv.Scenario,
		Type:          inv.Type,
		Currency:      inv.Currency,
		Payable:       totals.Payable.String(),
		SubmittedAt:   inv.UpdatedAt,
	}
	if err := s.publisher.PublishSubmitted(ctx, event); err != nil {
		s.log.Error().
			Err(err).
			Str("invoice_id", inv.ID.String()).
			Msg("Failed to publish submitted event")
	}
}

// GetInvoice fetches a submitted invoice with its stored totals.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceDraft, models.InvoiceTotals, error) {
	inv, totals, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, models.InvoiceTotals{}, WrapBillingError("GetInvoice", err, id.String())
	}
	return inv, totals, nil
}

// ListInvoices returns up to limit invoices, optionally filtered by status.
func (s *Service) ListInvoices(ctx context.Context, status string, limit int) ([]models.InvoiceDraft, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := s.invoices.ListInvoices(ctx, status, limit)
	if err != nil {
		return nil, WrapBillingError("ListInvoices", err, "")
	}
	return out, nil
}

// FormatInvoiceNumber renders the GİB serial form: 3-letter prefix, 4-digit
// year, 9-digit zero-padded sequence (e.g. XER2026000000042).
func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%04d%09d", prefix, year, seq)
}
