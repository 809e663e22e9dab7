package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"moneytrack/internal/core"
	applog "moneytrack/internal/log"
	"moneytrack/internal/ports"
	"moneytrack/internal/stats"
)

var (
	errInvalidPage  = errors.New("invalid page")
	errInvalidLimit = errors.New("invalid limit")
	errInvalidBody  = errors.New("invalid request body")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps err onto a status code. Anything unrecognised is a
// storage failure: it is logged under fallback and answered with 500 and the
// underlying message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, op, fallback string, err error) {
	switch {
	case errors.Is(err, errInvalidPage), errors.Is(err, errInvalidLimit), errors.Is(err, stats.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errInvalidBody):
		writeError(w, http.StatusBadRequest, err.Error())
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrCategoryExists):
		writeError(w, http.StatusBadRequest, "Category already exists")
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, stats.ErrTimeout):
		s.logError(r, "Request timed out", err, applog.ErrorTypeTimeout, op)
		writeError(w, http.StatusGatewayTimeout, stats.ErrTimeout.Error())
	default:
		s.logError(r, fallback, err, applog.ErrorTypeDatabase, op)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) logError(r *http.Request, msg string, err error, errorType, op string) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, errorType, op, nil)
}

// parsePagination reads page and limit. Absent values take the defaults,
// values that are not positive integers are rejected and limit is clamped
// to maxLimit.
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (core.Page, error) {
	page := core.Page{Number: 1, Limit: defaultLimit}
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return core.Page{}, errInvalidPage
		}
		page.Number = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return core.Page{}, errInvalidLimit
		}
		page.Limit = n
	}
	if page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page, nil
}

// parseDateRange reads the optional startDate and endDate query parameters.
func parseDateRange(r *http.Request) (core.DateRange, error) {
	var dates core.DateRange
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("startDate: %w", err)
		}
		dates.From = d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("endDate: %w", err)
		}
		dates.To = d
	}
	if err := dates.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return dates, nil
}

func parseFilter(r *http.Request) (ports.TransactionFilter, error) {
	dates, err := parseDateRange(r)
	if err != nil {
		return ports.TransactionFilter{}, err
	}
	q := r.URL.Query()
	return ports.TransactionFilter{
		Account:  strings.TrimSpace(q.Get("account")),
		Category: strings.TrimSpace(q.Get("category")),
		Dates:    dates,
	}, nil
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
// Domain validation errors raised while decoding are passed through.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if core.IsValidation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
