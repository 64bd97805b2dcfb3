package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/render"
	"github.com/omrozmn/x-ear-billing/internal/rules"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var draft models.InvoiceDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error()})
		return
	}

	inv, totals, err := s.service.Submit(ctx, &draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"invoice": inv,
		"totals":  totals,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var draft models.InvoiceDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error()})
		return
	}

	result, err := s.service.Preview(ctx, &draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := s.service.ListInvoices(ctx, r.URL.Query().Get("status"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid invoice id"})
		return
	}
	inv, totals, err := s.service.GetInvoice(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invoice": inv,
		"totals":  totals,
	})
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid invoice id"})
		return
	}
	inv, totals, err := s.service.GetInvoice(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var party *models.Party
	if s.parties != nil && inv.PartyID != uuid.Nil {
		if p, err := s.parties.GetParty(ctx, inv.PartyID); err == nil {
			party = p
		} else if !errors.Is(err, billing.ErrPartyNotFound) {
			s.writeError(w, err)
			return
		}
	}

	pdf, err := render.PDF(render.Input{Invoice: inv, Totals: totals, Party: party})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.pdf", inv.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleCreateParty(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var party models.Party
	if err := json.NewDecoder(r.Body).Decode(&party); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json: " + err.Error()})
		return
	}
	if party.Name == "" || party.TaxID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name and tax_id are required"})
		return
	}
	if party.ID == uuid.Nil {
		party.ID = uuid.New()
	}
	now := time.Now().UTC()
	party.CreatedAt = now
	party.UpdatedAt = now

	if err := s.parties.CreateParty(ctx, &party); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, party)
}

func (s *Server) handleSearchParties(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	parties, err := s.parties.SearchParties(ctx, r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parties": parties})
}

// handleAllowedTypes exposes the compatibility table so draft editors can
// populate the type selector for a scenario.
func (s *Server) handleAllowedTypes(w http.ResponseWriter, r *http.Request) {
	scenario := mux.Vars(r)["scenario"]
	if !rules.KnownScenario(scenario) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown scenario"})
		return
	}
	types := rules.AllowedTypes(scenario)
	named := make([]map[string]string, 0, len(types))
	for _, t := range types {
		named = append(named, map[string]string{"code": t, "name": rules.TypeName(t)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario":        scenario,
		"scenario_name":   rules.ScenarioName(scenario),
		"types":           named,
		"currency_forced": rules.CurrencyForced(scenario, ""),
	})
}
