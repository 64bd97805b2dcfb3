package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omrozmn/x-ear-billing/internal/billing"
	"github.com/omrozmn/x-ear-billing/internal/server"
	"github.com/omrozmn/x-ear-billing/internal/store"
	"github.com/omrozmn/x-ear-billing/pkg/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	service := billing.NewService(mem, mem, nil, "XER")
	srv := server.New(service, mem, 5*time.Second, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, mem
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func draftPayload() map[string]any {
	return map[string]any{
		"scenario": "0",
		"type":     "0",
		"currency": "TRY",
		"lines": []map[string]any{
			{
				"name":       "Kulak içi işitme cihazı",
				"quantity":   "1",
				"unit_price": "9000",
				"vat_rate":   "10",
			},
		},
	}
}

func TestSubmitAndGetInvoice(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/invoices", draftPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Invoice models.InvoiceDraft  `json:"invoice"`
		Totals  models.InvoiceTotals `json:"totals"`
	}
	decodeBody(t, resp, &created)
	assert.Regexp(t, `^XER\d{4}\d{9}$`, created.Invoice.InvoiceNumber)
	assert.Equal(t, models.StatusSubmitted, created.Invoice.Status)
	assert.Equal(t, "9900", created.Totals.Payable.String())

	getResp, err := http.Get(ts.URL + "/api/v1/invoices/" + created.Invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched struct {
		Invoice models.InvoiceDraft `json:"invoice"`
	}
	decodeBody(t, getResp, &fetched)
	assert.Equal(t, created.Invoice.ID, fetched.Invoice.ID)
}

func TestSubmitInvalidDraftReturns422WithViolations(t *testing.T) {
	ts, _ := newTestServer(t)

	payload := draftPayload()
	payload["type"] = "14" // SGK without the SGK block

	resp := postJSON(t, ts.URL+"/api/v1/invoices", payload)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error      string              `json:"error"`
		Violations []billing.Violation `json:"violations"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Violations)
	assert.Equal(t, "sgk", body.Violations[0].Field)
}

func TestPreviewIsAdvisory(t *testing.T) {
	ts, _ := newTestServer(t)

	payload := draftPayload()
	payload["scenario"] = "7" // government forces TRY and restricts types
	payload["currency"] = "USD"
	payload["type"] = "1" // illegal under government

	resp := postJSON(t, ts.URL+"/api/v1/invoices/preview", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode, "preview never rejects")

	var body struct {
		Draft          models.InvoiceDraft `json:"draft"`
		Violations     []billing.Violation `json:"violations"`
		CurrencyNotice string              `json:"currency_notice"`
		AllowedTypes   []string            `json:"allowed_types"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "TRY", body.Draft.Currency)
	assert.Empty(t, body.Draft.Type, "illegal type reset")
	assert.NotEmpty(t, body.CurrencyNotice)
	assert.Contains(t, body.AllowedTypes, "27")
}

func TestSubmitMalformedJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/invoices", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetInvoiceNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/invoices/" + uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/invoices/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPartyCreateAndSearch(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/parties", map[string]any{
		"kind":   models.PartyPerson,
		"name":   "Fatma Demir",
		"tax_id": "98765432109",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var party models.Party
	decodeBody(t, resp, &party)
	assert.NotEqual(t, uuid.Nil, party.ID)

	searchResp, err := http.Get(ts.URL + "/api/v1/parties?q=demir")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, searchResp.StatusCode)

	var search struct {
		Parties []models.Party `json:"parties"`
	}
	decodeBody(t, searchResp, &search)
	require.Len(t, search.Parties, 1)
	assert.Equal(t, "Fatma Demir", search.Parties[0].Name)
}

func TestPartyCreateRequiresNameAndTaxID(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/parties", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAllowedTypesEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/rules/scenarios/3/types")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ScenarioName string `json:"scenario_name"`
		Types        []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"types"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "IHRACAT", body.ScenarioName)
	require.Len(t, body.Types, 1)
	assert.Equal(t, "13", body.Types[0].Code)

	missing, err := http.Get(ts.URL + "/api/v1/rules/scenarios/99/types")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestInvoicePDF(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/invoices", draftPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Invoice models.InvoiceDraft `json:"invoice"`
	}
	decodeBody(t, resp, &created)

	pdfResp, err := http.Get(ts.URL + "/api/v1/invoices/" + created.Invoice.ID.String() + "/pdf")
	require.NoError(t, err)
	defer pdfResp.Body.Close()
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	assert.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))

	head := make([]byte, 5)
	_, err = pdfResp.Body.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	// Hit an instrumented handler so the per-handler series exist.
	listResp, err := http.Get(ts.URL + "/api/v1/invoices")
	require.NoError(t, err)
	listResp.Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "xear_billing_http_requests_total",
		"scrape endpoint must serve the registry the handlers count into")
	assert.Contains(t, string(body), `handler="list_invoices"`)
}
