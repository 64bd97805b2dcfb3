// Package store persists invoices and parties. The Postgres implementation
// keeps the draft document as JSONB next to the indexed columns the list
// and search queries need; Memory mirrors it for tests and the offline CLI.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

// Schema is the DDL the service expects. Applied out of band (migration
// tooling is owned by ops); kept here so the store and its tables cannot
// drift silently.
const Schema = `
CREATE TABLE IF NOT EXISTS invoices (
    id             UUID PRIMARY KEY,
    invoice_number TEXT UNIQUE NOT NULL,
    scenario       TEXT NOT NULL,
    type           TEXT NOT NULL,
    currency       TEXT NOT NULL,
    status         TEXT NOT NULL,
    party_id       UUID,
    issue_date     TIMESTAMPTZ NOT NULL,
    document       JSONB NOT NULL,
    totals         JSONB NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS invoices_status_idx ON invoices(status);

CREATE TABLE IF NOT EXISTS invoice_sequences (
    prefix TEXT NOT NULL,
    year   INT  NOT NULL,
    last   BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (prefix, year)
);

CREATE TABLE IF NOT EXISTS parties (
    id         UUID PRIMARY KEY,
    kind       TEXT NOT NULL,
    name       TEXT NOT NULL,
    tax_id     TEXT NOT NULL,
    alias      TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    address    TEXT NOT NULL DEFAULT '',
    city       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS parties_name_idx ON parties(lower(name));
CREATE INDEX IF NOT EXISTS parties_tax_id_idx ON parties(tax_id);
`

// Postgres implements billing.InvoiceStore and billing.PartyStore on a
// pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a store to an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// InsertInvoice stores a submitted invoice with its computed totals.
func (p *Postgres) InsertInvoice(ctx context.Context, inv *models.InvoiceDraft, totals models.InvoiceTotals) error {
	doc, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}
	tot, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, scenario, type, currency, status, party_id, issue_date, document, totals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.InvoiceNumber, inv.Scenario, inv.Type, inv.Currency, inv.Status,
		nullableUUID(inv.PartyID), inv.IssueDate, doc, tot, inv.CreatedAt, inv.UpdatedAt)
	return err
}

// GetInvoice loads an invoice and its totals by id.
func (p *Postgres) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceDraft, models.InvoiceTotals, error) {
	var doc, tot []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document, totals FROM invoices WHERE id = $1`, id).Scan(&doc, &tot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.InvoiceTotals{}, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, models.InvoiceTotals{}, err
	}
	return decodeInvoice(doc, tot)
}

// ListInvoices returns up to limit invoices, newest first, optionally
// filtered by status.
func (p *Postgres) ListInvoices(ctx context.Context, status string, limit int) ([]models.InvoiceDraft, error) {
	query := `SELECT document FROM invoices`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InvoiceDraft
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var inv models.InvoiceDraft
		if err := json.Unmarshal(doc, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// NextSequence atomically advances and returns the serial counter for a
// prefix/year pair.
func (p *Postgres) NextSequence(ctx context.Context, prefix string, year int) (int64, error) {
	var next int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO invoice_sequences (prefix, year, last) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET last = invoice_sequences.last + 1
		RETURNING last`, prefix, year).Scan(&next)
	return next, err
}

// GetParty loads a party by id.
func (p *Postgres) GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, kind, name, tax_id, alias, email, phone, address, city, created_at, updated_at
		FROM parties WHERE id = $1`, id)
	party, err := scanParty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, billing.ErrPartyNotFound
	}
	return party, err
}

// CreateParty stores a new party record.
func (p *Postgres) CreateParty(ctx context.Context, party *models.Party) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO parties (id, kind, name, tax_id, alias, email, phone, address, city, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		party.ID, party.Kind, party.Name, party.TaxID, party.Alias,
		party.Email, party.Phone, party.Address, party.City,
		party.CreatedAt, party.UpdatedAt)
	return err
}

// SearchParties matches the query against party names (case-insensitive
// substring) and tax ids (prefix).
func (p *Postgres) SearchParties(ctx context.Context, query string, limit int) ([]models.Party, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, kind, name, tax_id, alias, email, phone, address, city, created_at, updated_at
		FROM parties
		WHERE lower(name) LIKE '%' || lower($1) || '%' OR tax_id LIKE $1 || '%'
		ORDER BY name LIMIT $2`, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Party
	for rows.Next() {
		party, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *party)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (*models.Party, error) {
	var party models.Party
	err := row.Scan(&party.ID, &party.Kind, &party.Name, &party.TaxID, &party.Alias,
		&party.Email, &party.Phone, &party.Address, &party.City,
		&party.CreatedAt, &party.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func decodeInvoice(doc, tot []byte) (*models.InvoiceDraft, models.InvoiceTotals, error) {
	var inv models.InvoiceDraft
	if err := json.Unmarshal(doc, &inv); err != nil {
		return nil, models.InvoiceTotals{}, fmt.Errorf("decode invoice: %w", err)
	}
	var totals models.InvoiceTotals
	if err := json.Unmarshal(tot, &totals); err != nil {
		return nil, models.InvoiceTotals{}, fmt.Errorf("decode totals: %w", err)
	}
	return &inv, totals, nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
