// Package api exposes the HTTP interface for the analysis service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/metrics"
	"github.com/sitelens/sitelens/internal/mobile"
	"github.com/sitelens/sitelens/internal/pagespeed"
	"github.com/sitelens/sitelens/internal/secheaders"
	"github.com/sitelens/sitelens/internal/techstack"
	"github.com/sitelens/sitelens/internal/webvitals"
)

// LighthouseAuditor runs a local Lighthouse audit.
type LighthouseAuditor interface {
	Audit(ctx context.Context, url string) (*lighthouse.Report, error)
}

// WebsiteTester runs the remote PageSpeed Insights test.
type WebsiteTester interface {
	Analyze(ctx context.Context, url, strategy string) (*pagespeed.Result, error)
}

// TechDetector fingerprints a site's technologies.
type TechDetector interface {
	Detect(ctx context.Context, url string) (*techstack.Report, error)
}

// HeaderAnalyzer grades a site's security headers.
type HeaderAnalyzer interface {
	Analyze(ctx context.Context, url string) (*secheaders.Report, error)
}

// MobileAnalyzer runs the mobile-friendliness heuristics.
type MobileAnalyzer interface {
	Analyze(ctx context.Context, url string) (*mobile.Report, error)
}

// VitalsClient queries Core Web Vitals field data.
type VitalsClient interface {
	Query(ctx context.Context, url, formFactor string) (*webvitals.Report, error)
}

// Analyzers bundles the collaborators behind the six handler families.
type Analyzers struct {
	Lighthouse LighthouseAuditor
	Website    WebsiteTester
	TechStack  TechDetector
	SecHeaders HeaderAnalyzer
	Mobile     MobileAnalyzer
	WebVitals  VitalsClient
}

// Server wires HTTP handlers to the analyzers.
type Server struct {
	router    chi.Router
	cfg       config.Config
	logger    *zap.Logger
	analyzers Analyzers
}

// NewServer constructs a Server with middleware and routes.
func NewServer(cfg config.Config, analyzers Analyzers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		analyzers: analyzers,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(time.Duration(cfg.Server.TimeoutSeconds) * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.CORS.AllowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/analyze", func(r chi.Router) {
		r.Post("/lighthouse", s.analyzeLighthouse)
		r.Get("/test-lighthouse", s.testLighthouse)

		r.Get("/test-website/*", s.testWebsite)

		r.Post("/tech-stack", s.analyzeTechStack)
		r.Get("/test-tech-stack", s.testTechStack)

		r.Post("/security-headers", s.analyzeSecurityHeaders)
		r.Get("/test-security-headers", s.testSecurityHeaders)

		r.Post("/mobile-friendly", s.analyzeMobileFriendly)
		r.Get("/test-mobile-friendly", s.testMobileFriendly)

		r.Post("/core-web-vitals", s.analyzeCoreWebVitals)
		r.Get("/test-core-web-vitals", s.testCoreWebVitals)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Handlers hold no cross-request state; readiness equals liveness.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}
