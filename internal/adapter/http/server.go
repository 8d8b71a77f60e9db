// Package http exposes the compliance service's REST API plus health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/supplier-compliance-service/internal/compliance"
	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

// Server exposes the REST API over the compliance service.
type Server struct {
	httpServer *http.Server
	svc        *compliance.Service
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all API, health, and metrics routes.
func NewServer(addr string, svc *compliance.Service, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /suppliers", s.handleCreateSupplier)
	mux.HandleFunc("GET /suppliers", s.handleListSuppliers)
	mux.HandleFunc("GET /suppliers/{id}", s.handleGetSupplier)
	mux.HandleFunc("PUT /suppliers/{id}", s.handleUpdateSupplier)
	mux.HandleFunc("DELETE /suppliers/{id}", s.handleDeleteSupplier)
	mux.HandleFunc("POST /suppliers/check-weather-impact", s.handleCheckWeatherImpact)

	mux.HandleFunc("POST /compliance/check-compliance", s.handleCheckCompliance)
	mux.HandleFunc("GET /compliance/{supplier_id}/compliance-records", s.handleListRecords)
	mux.HandleFunc("POST /compliance/{supplier_id}/compliance-record", s.handleCreateRecord)

	mux.HandleFunc("GET /insights", s.handleInsights)
	mux.HandleFunc("GET /insights/compliance-summary", s.handleComplianceSummary)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

// writeError maps the domain error taxonomy to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, domain.ErrInvalidInput)
	}
	return nil
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
