package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

// failingStore simulates a primary whose every call blows up.
type failingStore struct{}

func (failingStore) GetAll(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("connection reset")
}
func (failingStore) Create(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, errors.New("connection reset")
}
func (failingStore) Update(context.Context, string, core.TransactionUpdate) (core.Transaction, error) {
	return core.Transaction{}, errors.New("connection reset")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("connection reset") }
func (failingStore) Stats(context.Context) (core.Stats, error) {
	return core.Stats{}, errors.New("connection reset")
}
func (failingStore) MonthlyExpenses(context.Context) ([]core.MonthlyExpense, error) {
	return nil, errors.New("connection reset")
}

var _ store.TransactionStore = failingStore{}

// newTestServer runs the API over a primary memory store so responses carry
// no fallback marker.
func newTestServer(primary store.TransactionStore) *Server {
	return NewServer(":0", backend.NewCoordinator(primary, memory.New(), nil))
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeTxn(t *testing.T, rr *httptest.ResponseRecorder) core.Transaction {
	t.Helper()
	var txn core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txn); err != nil {
		t.Fatalf("decode transaction: %v (%s)", err, rr.Body.String())
	}
	return txn
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(memory.New())
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	srv := newTestServer(memory.New())

	rr := doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": -85.50, "description": "Grocery shopping", "date": "2025-01-15", "category": "Food & Dining"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(FallbackHeader) != "" {
		t.Fatal("unexpected fallback header on primary path")
	}

	txn := decodeTxn(t, rr)
	if txn.ID == "" {
		t.Fatal("created transaction has no id")
	}
	if txn.Amount != -85.50 || txn.Date.String() != "2025-01-15" {
		t.Fatalf("created = %+v", txn)
	}
}

func TestCreateTransactionDefaultsDate(t *testing.T) {
	srv := newTestServer(memory.New())
	rr := doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": 3000, "description": "Salary", "category": "Income"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if decodeTxn(t, rr).Date.String() != core.Today().String() {
		t.Fatal("date was not defaulted to today")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing amount", `{"description": "x", "category": "Misc"}`},
		{"zero amount", `{"amount": 0, "description": "x", "category": "Misc"}`},
		{"missing description", `{"amount": 5, "category": "Misc"}`},
		{"missing category", `{"amount": 5, "description": "x"}`},
		{"malformed date", `{"amount": 5, "description": "x", "category": "Misc", "date": "01/15/2025"}`},
		{"description too long", `{"amount": 5, "description": "` + strings.Repeat("x", 101) + `", "category": "Misc"}`},
		{"invalid json", `{"amount": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(memory.New())
			rr := doRequest(t, srv, http.MethodPost, "/transactions", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp["error"] == "" {
				t.Fatalf("expected error body, got %s", rr.Body.String())
			}
		})
	}
}

func TestListTransactions(t *testing.T) {
	srv := newTestServer(memory.NewWithSampleData())
	rr := doRequest(t, srv, http.MethodGet, "/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var txns []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txns) != 4 {
		t.Fatalf("got %d transactions, want 4", len(txns))
	}
}

func TestUpdateTransaction(t *testing.T) {
	srv := newTestServer(memory.New())
	created := decodeTxn(t, doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": -42, "description": "Dinner", "date": "2025-03-03", "category": "Food & Dining"}`))

	rr := doRequest(t, srv, http.MethodPut, "/transactions/"+created.ID, `{"description": "Dinner out"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	updated := decodeTxn(t, rr)
	if updated.Description != "Dinner out" {
		t.Fatalf("description = %q", updated.Description)
	}
	if updated.Amount != -42 || updated.Category != "Food & Dining" || updated.Date.String() != "2025-03-03" {
		t.Fatalf("merge touched absent fields: %+v", updated)
	}
}

func TestUpdateTransactionErrors(t *testing.T) {
	srv := newTestServer(memory.New())

	rr := doRequest(t, srv, http.MethodPut, "/transactions/unknown-id", `{"description": "x"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", rr.Code)
	}

	created := decodeTxn(t, doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": 5, "description": "x", "category": "Misc"}`))
	rr = doRequest(t, srv, http.MethodPut, "/transactions/"+created.ID, `{"amount": 0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("zero amount update status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPut, "/transactions/"+created.ID, `{"date": "soon"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date update status = %d", rr.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv := newTestServer(memory.New())
	created := decodeTxn(t, doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": 5, "description": "x", "category": "Misc"}`))

	rr := doRequest(t, srv, http.MethodDelete, "/transactions/"+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]bool
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || !resp["success"] {
		t.Fatalf("body = %s", rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodDelete, "/transactions/"+created.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(memory.NewWithSampleData())
	rr := doRequest(t, srv, http.MethodGet, "/analytics/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var stats core.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := core.Stats{TotalIncome: 3000, TotalExpenses: 1330.70, Balance: 1669.30, TransactionCount: 4}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestMonthlyExpensesEndpoint(t *testing.T) {
	srv := newTestServer(memory.NewWithSampleData())
	rr := doRequest(t, srv, http.MethodGet, "/analytics/monthly-expenses", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var monthly []core.MonthlyExpense
	if err := json.Unmarshal(rr.Body.Bytes(), &monthly); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(monthly) != 1 || monthly[0] != (core.MonthlyExpense{Month: "2025-01", Amount: 1330.70}) {
		t.Fatalf("monthly = %+v", monthly)
	}
}

func TestMonthlyExpensesEmptyIsArray(t *testing.T) {
	srv := newTestServer(memory.New())
	rr := doRequest(t, srv, http.MethodGet, "/analytics/monthly-expenses", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("body = %s, want []", rr.Body.String())
	}
}

func TestFallbackMarkerOnPrimaryFailure(t *testing.T) {
	srv := NewServer(":0", backend.NewCoordinator(failingStore{}, memory.NewWithSampleData(), nil))

	rr := doRequest(t, srv, http.MethodGet, "/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want fallback data not a 500", rr.Code)
	}
	if rr.Header().Get(FallbackHeader) != "true" {
		t.Fatal("fallback header missing")
	}
	var txns []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txns); err != nil || len(txns) != 4 {
		t.Fatalf("fallback data wrong: %s", rr.Body.String())
	}
}

func TestFallbackMarkerOnNotFound(t *testing.T) {
	// Not-found from the fallback carries the marker so callers can tell it
	// apart from a durable not-found: the id may still exist in the primary.
	srv := NewServer(":0", backend.NewCoordinator(failingStore{}, memory.New(), nil))

	rr := doRequest(t, srv, http.MethodDelete, "/transactions/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if rr.Header().Get(FallbackHeader) != "true" {
		t.Fatal("fallback header missing on delete not-found")
	}

	rr = doRequest(t, srv, http.MethodPut, "/transactions/nope", `{"description": "x"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update status = %d", rr.Code)
	}
	if rr.Header().Get(FallbackHeader) != "true" {
		t.Fatal("fallback header missing on update not-found")
	}

	// A healthy primary's not-found is durable and stays unmarked.
	healthy := newTestServer(memory.New())
	rr = doRequest(t, healthy, http.MethodDelete, "/transactions/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get(FallbackHeader) != "" {
		t.Fatal("unexpected fallback header on primary not-found")
	}
}

func TestCreateStoresFieldsVerbatim(t *testing.T) {
	srv := newTestServer(memory.New())
	rr := doRequest(t, srv, http.MethodPost, "/transactions",
		`{"amount": -12.50, "description": "  Café lunch  ", "date": "2025-04-02", "category": " Food & Dining "}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeTxn(t, rr)
	if created.Description != "  Café lunch  " || created.Category != " Food & Dining " {
		t.Fatalf("fields were altered on create: %+v", created)
	}

	padded := "  Lunch at the café  "
	rr = doRequest(t, srv, http.MethodPut, "/transactions/"+created.ID, `{"description": "`+padded+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := decodeTxn(t, rr).Description; got != padded {
		t.Fatalf("description = %q, want %q", got, padded)
	}
}

func TestGenericFailureWhenBothStoresFail(t *testing.T) {
	srv := NewServer(":0", backend.NewCoordinator(failingStore{}, failingStore{}, nil))

	rr := doRequest(t, srv, http.MethodGet, "/analytics/stats", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] == "" || strings.Contains(resp["error"], "connection reset") {
		t.Fatalf("internal error leaked to client: %s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(memory.New())
	cases := []struct {
		method, path string
	}{
		{http.MethodDelete, "/transactions"},
		{http.MethodPost, "/transactions/some-id"},
		{http.MethodPost, "/analytics/stats"},
		{http.MethodPut, "/analytics/monthly-expenses"},
	}
	for _, tc := range cases {
		rr := doRequest(t, srv, tc.method, tc.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s status = %d", tc.method, tc.path, rr.Code)
		}
	}
}
