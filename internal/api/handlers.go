package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Aman-CERP/dictionary/internal/document"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/query"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

// InfoResponse is the body of GET /api/.
type InfoResponse struct {
	Version        string `json:"version"`
	IsKafkaEnabled bool   `json:"is_kafka_enabled"`
	KafkaQueues    string `json:"kafka_queues"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Version:        s.opts.Version,
		IsKafkaEnabled: s.opts.KafkaEnabled,
		KafkaQueues:    s.opts.KafkaQueues,
	})
}

func (s *Server) handleList(kind document.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePagination(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := s.querier.List(r.Context(), kind, tenantFrom(r), r.URL.Query().Get("search_value"), page)
		if err != nil {
			s.queryFailed(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) handleGet(kind document.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id: %q", id))
			return
		}

		body, found, err := s.querier.GetByID(r.Context(), kind, id, tenantFrom(r))
		if err != nil {
			s.queryFailed(w, r, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	attrs := append([]any{
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestID(r.Context())),
	}, serrors.LogAttrs(err)...)
	slog.Error("query_failed", attrs...)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// tenantFrom reads the tenant context from the query string.
func tenantFrom(r *http.Request) tenant.Context {
	q := r.URL.Query()
	return tenant.Context{
		Language: q.Get("language"),
		ClientID: q.Get("client_id"),
		RoleID:   q.Get("role_id"),
		UserID:   q.Get("user_id"),
	}
}

// parsePagination reads page_number and page_size. Absent values are zero,
// which the query service replaces with its defaults.
func parsePagination(r *http.Request) (*query.Pagination, error) {
	q := r.URL.Query()
	page := &query.Pagination{}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page_number", &page.Number},
		{"page_size", &page.Size},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", p.name, raw)
		}
		*p.dst = n
	}
	return page, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: status, Message: message})
}
