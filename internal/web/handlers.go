package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvutil/internal/logging"
)

// MaxKeysPage caps the page size of /api/keys.
const MaxKeysPage = 1000

type healthResponse struct {
	Status string `json:"status"`
	File   string `json:"file"`
	Keys   int    `json:"keys"`
}

type keysResponse struct {
	Keys   []string `json:"keys"`
	Total  int      `json:"total"`
	Offset int      `json:"offset"`
}

type valuesResponse struct {
	Key    string   `json:"key"`
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// handleHealth reports liveness and the index size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", File: s.index.Path, Keys: s.index.Len()})
}

// handleListKeys pages through the sorted keys.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	limit, err := parseIntParam(r, "limit", 100)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if limit == 0 || limit > MaxKeysPage {
		limit = MaxKeysPage
	}

	respondJSON(w, http.StatusOK, keysResponse{
		Keys:   s.index.Keys(offset, limit),
		Total:  s.index.Len(),
		Offset: offset,
	})
}

// handleGetRow returns the row stored under the key, columns in file order.
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rec, err := s.index.Row(key)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Debug("row lookup", "key", key)
	respondJSON(w, http.StatusOK, rec)
}

// handleGetValues returns every value recorded for the key.
func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	vals, err := s.index.Values(key)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, valuesResponse{Key: key, Column: s.index.Value, Values: vals})
}

func statusFor(err error) int {
	if errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrNoValueColumn) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// parseIntParam parses a non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, errors.Join(errInvalidParam, errors.New(name+"="+val))
	}
	return i, nil
}

// respondJSON writes v as the response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
