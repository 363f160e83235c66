// Package web exposes the assistant core over a JSON/SSE API consumed by
// the browser front end.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/teuglobal/htspilot/internal/service"
	"github.com/teuglobal/htspilot/internal/store"
	"github.com/teuglobal/htspilot/internal/tariffdata"
)

type Server struct {
	query        *service.QueryService
	settings     *store.SettingsStore
	denylist     *store.DenylistStore
	history      *store.HistoryStore
	tariff       *tariffdata.Client
	historyLimit int
	mux          *http.ServeMux
	logger       *slog.Logger
}

func NewServer(
	query *service.QueryService,
	settings *store.SettingsStore,
	denylist *store.DenylistStore,
	history *store.HistoryStore,
	tariff *tariffdata.Client,
	historyLimit int,
	logger *slog.Logger,
) *Server {
	s := &Server{
		query:        query,
		settings:     settings,
		denylist:     denylist,
		history:      history,
		tariff:       tariff,
		historyLimit: historyLimit,
		mux:          http.NewServeMux(),
		logger:       logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/queries", s.handleSubmitQuery)
	s.mux.HandleFunc("POST /api/queries/cancel", s.handleCancelQuery)
	s.mux.HandleFunc("GET /api/messages/{id}/analysis", s.handleGetAnalysis)
	s.mux.HandleFunc("POST /api/messages/{id}/summary", s.handleSummarize)

	s.mux.HandleFunc("GET /api/history", s.handleListHistory)
	s.mux.HandleFunc("DELETE /api/history", s.handleClearHistory)

	s.mux.HandleFunc("GET /api/admin/prompts", s.handleGetPrompts)
	s.mux.HandleFunc("PUT /api/admin/prompts", s.handleUpdatePrompts)
	s.mux.HandleFunc("GET /api/denylist", s.handleListDenylist)
	s.mux.HandleFunc("POST /api/denylist", s.handleAddDenylist)
	s.mux.HandleFunc("DELETE /api/denylist/{code}", s.handleRemoveDenylist)

	s.mux.HandleFunc("GET /api/tariff/search", s.handleTariffSearch)
	s.mux.HandleFunc("GET /api/tariff/{code}", s.handleTariffDetails)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE streaming works through the
// middleware chain.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 60 * time.Second,
		// No write timeout: query responses stream for as long as the
		// model keeps producing.
		IdleTimeout: 120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
