// Package httpapi exposes the planning engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/db"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/metrics"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server is the HTTP front end of the planner.
type Server struct {
	httpServer *http.Server
}

// StatusSource reports the state of the knowledge base.
type StatusSource interface {
	Status(ctx context.Context) (*db.Status, error)
}

// NewRouter builds the route table.
func NewRouter(eng *engine.Engine, status StatusSource, version string) http.Handler {
	h := &handlers{engine: eng, status: status, version: version}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check and scrape routes (unversioned)
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.knowledgeStatus)
		r.Post("/analyze", h.analyze)
		r.Route("/items/{code}", func(r chi.Router) {
			r.Get("/", h.itemLookup)
			r.Get("/uses", h.materialUses)
			r.Get("/bom", h.billOfMaterials)
		})
		r.Post("/skills/{skill}/recipes", h.evaluateRecipes)
		r.Get("/skills/{skill}/unlocks", h.skillUnlocks)
	})

	return r
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, eng *engine.Engine, status StatusSource, version string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(eng, status, version),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") || strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRunID(r.Context(), logger.NewRunID())
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Debug("request started", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
