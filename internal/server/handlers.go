package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/advisor"
	"github.com/spigell/career-matcher/internal/catalog"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type careersResponse struct {
	Careers []catalog.Career `json:"careers"`
	Count   int              `json:"count"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Careers int    `json:"careers"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// handleMatch handles POST /v1/match.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := s.decodeMatchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rec, err := s.advisor.Recommend(r.Context(), req)
	if err != nil {
		if errors.Is(err, advisor.ErrNoProfile) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		requestLogger(r, s.logger).Error("recommendation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleListCareers handles GET /v1/careers with an optional category query.
func (s *Server) handleListCareers(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	careers := make([]catalog.Career, 0, s.catalog.Len())
	for _, career := range s.catalog.Careers() {
		if category != "" && !strings.EqualFold(career.Category, category) {
			continue
		}
		careers = append(careers, career)
	}

	writeJSON(w, http.StatusOK, careersResponse{Careers: careers, Count: len(careers)})
}

// handleGetCareer handles GET /v1/careers/{id}.
func (s *Server) handleGetCareer(w http.ResponseWriter, r *http.Request) {
	career, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, career)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Careers: s.catalog.Len()})
}
