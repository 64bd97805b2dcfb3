package models

import (
	"time"

	"github.com/google/uuid"
)

// Party kinds. Patients are individuals identified by TCKN; institutional
// customers (SGK, hospitals, public agencies) carry a VKN.
const (
	PartyPerson      = "PERSON"
	PartyInstitution = "INSTITUTION"
)

// Party is a customer of the retailer: a patient or an institution.
type Party struct {
	ID   uuid.UUID `json:"id"`
	Kind string    `json:"kind"`
	Name string    `json:"name"`

	// TaxID is an 11-digit TCKN for persons or a 10-digit VKN for
	// institutions.
	TaxID string `json:"tax_id"`

	// Alias is the party's registered e-invoice mailbox (posta kutusu).
	// Empty for e-Arşiv recipients.
	Alias string `json:"alias,omitempty"`

	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
