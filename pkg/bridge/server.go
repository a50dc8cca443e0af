// Package bridge exposes the archive wait protocol over HTTP so that an
// out-of-process browser can report navigations and ask for permalinks.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtnitsch/enquote/pkg/archive"
)

// MessageWaitForArchiveURL is the only coordination message type.
const MessageWaitForArchiveURL = "wait_for_archiveurl"

const maxBodyBytes = 64 << 10

type Server struct {
	archive *archive.Handler
	logger  *slog.Logger
}

func NewServer(h *archive.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{archive: h, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/v1/archive/wait", s.waitForArchive)
	r.Post("/v1/navigation", s.navigation)
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// ListenAndServe serves the router on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bridge listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("bridge server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			return
		}
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type waitRequest struct {
	Type  string `json:"type"`
	TabID *int   `json:"tabId"`
}

type waitResponse struct {
	ArchiveURL  string `json:"archiveUrl"`
	ArchiveDate string `json:"archiveDate"`
}

func (s *Server) waitForArchive(w http.ResponseWriter, r *http.Request) {
	var req waitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Type != MessageWaitForArchiveURL {
		http.Error(w, fmt.Sprintf("unsupported message type %q", req.Type), http.StatusBadRequest)
		return
	}
	if req.TabID == nil {
		http.Error(w, "tabId required", http.StatusBadRequest)
		return
	}

	result, err := s.archive.Wait(r.Context(), *req.TabID)
	if errors.Is(err, archive.ErrAlreadyWaiting) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, waitResponse{ArchiveURL: result.ArchiveURL, ArchiveDate: result.ArchiveDate}, http.StatusOK)
}

type navigationRequest struct {
	TabID       *int   `json:"tabId"`
	URL         string `json:"url"`
	ArchiveDate string `json:"archiveDate,omitempty"`
}

func (s *Server) navigation(w http.ResponseWriter, r *http.Request) {
	var req navigationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TabID == nil || strings.TrimSpace(req.URL) == "" {
		http.Error(w, "tabId and url required", http.StatusBadRequest)
		return
	}

	resolved := s.archive.Navigated(r.Context(), *req.TabID, req.URL, req.ArchiveDate)
	writeJSONStatus(w, map[string]bool{"resolved": resolved}, http.StatusAccepted)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, map[string]any{"status": "ok", "pending": s.archive.Pending().Len()}, http.StatusOK)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
