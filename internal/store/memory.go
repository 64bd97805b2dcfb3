package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

// Memory is an in-memory store with the same contract as Postgres. Used by
// tests and by the offline CLI commands.
type Memory struct {
	mu        sync.RWMutex
	invoices  map[uuid.UUID]memoryInvoice
	order     []uuid.UUID
	parties   map[uuid.UUID]models.Party
	sequences map[string]int64
}

type memoryInvoice struct {
	invoice models.InvoiceDraft
	totals  models.InvoiceTotals
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		invoices:  make(map[uuid.UUID]memoryInvoice),
		parties:   make(map[uuid.UUID]models.Party),
		sequences: make(map[string]int64),
	}
}

// InsertInvoice stores a submitted invoice.
func (m *Memory) InsertInvoice(_ context.Context, inv *models.InvoiceDraft, totals models.InvoiceTotals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice %s already exists", inv.ID)
	}
	m.invoices[inv.ID] = memoryInvoice{invoice: *inv, totals: totals}
	m.order = append(m.order, inv.ID)
	return nil
}

// GetInvoice loads an invoice and its totals by id.
func (m *Memory) GetInvoice(_ context.Context, id uuid.UUID) (*models.InvoiceDraft, models.InvoiceTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.invoices[id]
	if !ok {
		return nil, models.InvoiceTotals{}, billing.ErrInvoiceNotFound
	}
	inv := rec.invoice
	return &inv, rec.totals, nil
}

// ListInvoices returns up to limit invoices, newest first.
func (m *Memory) ListInvoices(_ context.Context, status string, limit int) ([]models.InvoiceDraft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InvoiceDraft
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.invoices[m.order[i]]
		if status != "" && rec.invoice.Status != status {
			continue
		}
		out = append(out, rec.invoice)
	}
	return out, nil
}

// NextSequence advances the serial counter for a prefix/year pair.
func (m *Memory) NextSequence(_ context.Context, prefix string, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%d", prefix, year)
	m.sequences[key]++
	return m.sequences[key], nil
}

// GetParty loads a party by id.
func (m *Memory) GetParty(_ context.Context, id uuid.UUID) (*models.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	party, ok := m.parties[id]
	if !ok {
		return nil, billing.ErrPartyNotFound
	}
	return &party, nil
}

// CreateParty stores a new party record.
func (m *Memory) CreateParty(_ context.Context, party *models.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.parties[party.ID]; exists {
		return fmt.Errorf("party %s already exists", party.ID)
	}
	m.parties[party.ID] = *party
	return nil
}

// SearchParties matches names (case-insensitive substring) and tax id
// prefixes, sorted by name.
func (m *Memory) SearchParties(_ context.Context, query string, limit int) ([]models.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))

	var out []models.Party
	for _, party := range m.parties {
		if strings.Contains(strings.ToLower(party.Name), q) || strings.HasPrefix(party.TaxID, q) {
			out = append(out, party)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
