package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"diveanalytics-backend/internal/profile"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Handler routes the import trigger, the profile read endpoints and the
// metrics of gatherer.
func (s *Service) Handler(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)

	r.Post("/api/import", s.handleImport)
	r.Get("/api/divers", s.handleDivers)
	r.Get("/api/divers/{diverId}", s.handleDiver)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	var inv Invocation
	err := json.NewDecoder(r.Body).Decode(&inv)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	res := s.Import(r.Context(), inv)
	writeJSON(w, res.StatusCode, res.Body)
}

func (s *Service) handleDivers(w http.ResponseWriter, r *http.Request) {
	divers, err := s.reader.Divers(r.Context())
	if err != nil {
		s.tel.ReportBroken(report_profile_read, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, divers)
}

func (s *Service) handleDiver(w http.ResponseWriter, r *http.Request) {
	diverID, err := strconv.Atoi(chi.URLParam(r, "diverId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "diver id must be an integer"})
		return
	}

	diver, err := s.reader.Diver(r.Context(), diverID)
	if errors.Is(err, profile.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_profile_read, err, diverID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, diver)
}
