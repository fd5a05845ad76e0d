package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type createRequest struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
}

type updateRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Category    *string  `json:"category"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, fellBack, err := s.coordinator.GetAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	markFallback(w, fellBack)
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Client errors stop here: validation failures are never retried against
	// the fallback store.
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, core.ErrMissingAmount.Error())
		return
	}

	// Stored as given: validation trims only to detect blank fields.
	txn := core.Transaction{
		Amount:      *req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Date != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txn.Date = date
	}
	if err := txn.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, fellBack, err := s.coordinator.Create(r.Context(), txn)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", created.ID,
		"amount", created.Amount,
		"category", created.Category)
	markFallback(w, fellBack)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleUpdateTransaction(w, r, id)
	case http.MethodDelete:
		s.handleDeleteTransaction(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	update := core.TransactionUpdate{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		update.Date = &date
	}
	if err := update.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, fellBack, err := s.coordinator.Update(r.Context(), id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A not-found answered by the fallback still carries the marker:
			// the record may exist in the unreachable primary.
			markFallback(w, fellBack)
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction error", "error", err, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	markFallback(w, fellBack)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	fellBack, err := s.coordinator.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			markFallback(w, fellBack)
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	slog.InfoContext(r.Context(), "Transaction deleted", "transaction_id", id)
	markFallback(w, fellBack)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, fellBack, err := s.coordinator.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transaction statistics")
		return
	}
	markFallback(w, fellBack)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	monthly, fellBack, err := s.coordinator.MonthlyExpenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly expenses error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch monthly expenses")
		return
	}
	if monthly == nil {
		monthly = []core.MonthlyExpense{}
	}
	markFallback(w, fellBack)
	writeJSON(w, http.StatusOK, monthly)
}

// decodeBody parses a JSON request body, rejecting unknown syntax but not
// unknown fields.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
