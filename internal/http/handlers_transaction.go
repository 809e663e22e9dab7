package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"moneytrack/internal/core"
	applog "moneytrack/internal/log"
)

type transactionRequest struct {
	Amount      core.Money `json:"amount"`
	Account     string     `json:"account"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

func (req transactionRequest) toTransaction() core.Transaction {
	return core.Transaction{
		Amount:      req.Amount,
		Account:     sanitizeInput(req.Account),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
	}
}

type transactionListResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Pagination   core.PageInfo      `json:"pagination"`
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := parsePagination(r, defaultTransactionLimit, s.maxLimit)
	if err != nil {
		s.respondError(w, r, applog.OpList, "Failed to fetch transactions", err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, applog.OpList, "Failed to fetch transactions", err)
		return
	}

	total, err := s.store.CountTransactions(ctx, filter)
	if err != nil {
		s.respondError(w, r, applog.OpList, "Failed to fetch transactions", err)
		return
	}
	items, err := s.store.ListTransactions(ctx, filter, page)
	if err != nil {
		s.respondError(w, r, applog.OpList, "Failed to fetch transactions", err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactionListResponse{
		Transactions: items,
		Pagination:   page.Info(total),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "Failed to create transaction", err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), req.toTransaction())
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "Failed to create transaction", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionChanged(r.Context(), applog.OpCreate, created)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		s.respondError(w, r, applog.OpRead, "Failed to fetch transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpUpdate, "Failed to update transaction", err)
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), id, req.toTransaction())
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, "Failed to update transaction", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionChanged(r.Context(), applog.OpUpdate, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		s.respondError(w, r, applog.OpDelete, "Failed to delete transaction", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionChanged(r.Context(), applog.OpDelete, core.Transaction{ID: id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}
