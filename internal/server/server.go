// Package server exposes the billing engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/logger"
)

// Server routes HTTP requests to the billing service.
type Server struct {
	service *billing.Service
	parties billing.PartyStore
	timeout time.Duration
	metrics *Metrics
	scrape  http.Handler
	log     zerolog.Logger
}

// New builds a Server around the billing service. reg may be nil to use
// the default Prometheus registry.
func New(service *billing.Service, parties billing.PartyStore, timeout time.Duration, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Server{
		service: service,
		parties: parties,
		timeout: timeout,
		metrics: NewMetrics(reg),
		scrape:  MetricsHandler(reg),
		log:     logger.WithComponent("http-server"),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/invoices", s.metrics.instrument("submit_invoice", s.handleSubmit)).Methods(http.MethodPost)
	api.HandleFunc("/invoices/preview", s.metrics.instrument("preview_invoice", s.handlePreview)).Methods(http.MethodPost)
	api.HandleFunc("/invoices", s.metrics.instrument("list_invoices", s.handleList)).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", s.metrics.instrument("get_invoice", s.handleGet)).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/pdf", s.metrics.instrument("invoice_pdf", s.handlePDF)).Methods(http.MethodGet)
	api.HandleFunc("/parties", s.metrics.instrument("create_party", s.handleCreateParty)).Methods(http.MethodPost)
	api.HandleFunc("/parties", s.metrics.instrument("search_parties", s.handleSearchParties)).Methods(http.MethodGet)
	api.HandleFunc("/rules/scenarios/{scenario}/types", s.metrics.instrument("allowed_types", s.handleAllowedTypes)).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.scrape).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorBody is the JSON error envelope. Violations carry field paths so
// clients can attach messages to the offending inputs.
type errorBody struct {
	Error      string              `json:"error"`
	Violations []billing.Violation `json:"violations,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var failure *billing.ValidationFailure
	switch {
	case errors.As(err, &failure):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:      "invoice draft failed validation",
			Violations: failure.Violations,
		})
	case errors.Is(err, billing.ErrInvoiceNotFound), errors.Is(err, billing.ErrPartyNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	default:
		s.log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
