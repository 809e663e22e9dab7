package http

import (
	"net/http"

	"moneytrack/internal/core"
	applog "moneytrack/internal/log"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "Failed to fetch categories", err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "Failed to create category", err)
		return
	}

	created, err := s.store.CreateCategory(r.Context(), core.Category{
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAccountBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.store.AccountBalances(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpRead, "Failed to fetch account balances", err)
		return
	}
	if balances == nil {
		balances = []core.AccountBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dates, err := parseDateRange(r)
	if err != nil {
		s.respondError(w, r, applog.OpRead, "Failed to fetch summary", err)
		return
	}
	summary, err := s.store.Summary(r.Context(), dates)
	if err != nil {
		s.respondError(w, r, applog.OpRead, "Failed to fetch summary", err)
		return
	}
	if summary.CategoryBreakdown == nil {
		summary.CategoryBreakdown = []core.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r, defaultStatsLimit, s.maxLimit)
	if err != nil {
		s.respondError(w, r, applog.OpStats, "Failed to fetch monthly stats", err)
		return
	}

	result, err := s.engine.ListMonthlyStats(r.Context(), page)
	if err != nil {
		s.respondError(w, r, applog.OpStats, "Failed to fetch monthly stats", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogStatsPage(r.Context(), page, result)
	writeJSON(w, http.StatusOK, result)
}
