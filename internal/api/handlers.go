package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/analyzer"
	"github.com/sitelens/sitelens/internal/metrics"
)

// runAnalysis executes one analyzer call and serializes its result. Failures
// are reported with HTTP 200 and the uniform error envelope; analyzer faults
// never surface as 5xx.
func (s *Server) runAnalysis(
	ctx context.Context,
	w http.ResponseWriter,
	kind, targetURL string,
	fn func(context.Context) (any, error),
) {
	start := time.Now()
	payload, err := fn(ctx)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(kind, "error", duration)
		s.logger.Warn("analysis failed",
			zap.String("kind", kind),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		s.writeJSON(w, http.StatusOK, analyzer.NewFailure(targetURL, err.Error()))
		return
	}
	metrics.ObserveAnalysis(kind, "ok", duration)
	s.writeJSON(w, http.StatusOK, payload)
}

// requestURL decodes and normalizes the URL from a POST body. On failure it
// writes the error envelope and reports ok=false.
func (s *Server) requestURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req analyzer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusOK, analyzer.NewFailure("", "invalid JSON body"))
		return "", false
	}
	normalized, err := analyzer.NormalizeURL(req.URL)
	if err != nil {
		s.writeJSON(w, http.StatusOK, analyzer.NewFailure(req.URL, err.Error()))
		return "", false
	}
	return normalized, true
}

func (s *Server) analyzeLighthouse(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := s.requestURL(w, r)
	if !ok {
		return
	}
	s.runLighthouse(r.Context(), w, targetURL)
}

func (s *Server) testLighthouse(w http.ResponseWriter, r *http.Request) {
	s.runLighthouse(r.Context(), w, s.cfg.Analyzer.SampleURL)
}

func (s *Server) runLighthouse(ctx context.Context, w http.ResponseWriter, targetURL string) {
	s.runAnalysis(ctx, w, "lighthouse", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.Lighthouse.Audit(ctx, targetURL)
	})
}

func (s *Server) testWebsite(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	targetURL, err := analyzer.NormalizeURL(raw)
	if err != nil {
		s.writeJSON(w, http.StatusOK, analyzer.NewFailure(raw, err.Error()))
		return
	}
	s.runAnalysis(r.Context(), w, "website", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.Website.Analyze(ctx, targetURL, "mobile")
	})
}

func (s *Server) analyzeTechStack(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := s.requestURL(w, r)
	if !ok {
		return
	}
	s.runTechStack(r.Context(), w, targetURL)
}

func (s *Server) testTechStack(w http.ResponseWriter, r *http.Request) {
	s.runTechStack(r.Context(), w, s.cfg.Analyzer.SampleURL)
}

func (s *Server) runTechStack(ctx context.Context, w http.ResponseWriter, targetURL string) {
	s.runAnalysis(ctx, w, "tech-stack", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.TechStack.Detect(ctx, targetURL)
	})
}

func (s *Server) analyzeSecurityHeaders(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := s.requestURL(w, r)
	if !ok {
		return
	}
	s.runSecurityHeaders(r.Context(), w, targetURL)
}

func (s *Server) testSecurityHeaders(w http.ResponseWriter, r *http.Request) {
	s.runSecurityHeaders(r.Context(), w, s.cfg.Analyzer.SampleURL)
}

func (s *Server) runSecurityHeaders(ctx context.Context, w http.ResponseWriter, targetURL string) {
	s.runAnalysis(ctx, w, "security-headers", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.SecHeaders.Analyze(ctx, targetURL)
	})
}

func (s *Server) analyzeMobileFriendly(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := s.requestURL(w, r)
	if !ok {
		return
	}
	s.runMobileFriendly(r.Context(), w, targetURL)
}

func (s *Server) testMobileFriendly(w http.ResponseWriter, r *http.Request) {
	s.runMobileFriendly(r.Context(), w, s.cfg.Analyzer.SampleURL)
}

func (s *Server) runMobileFriendly(ctx context.Context, w http.ResponseWriter, targetURL string) {
	s.runAnalysis(ctx, w, "mobile-friendly", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.Mobile.Analyze(ctx, targetURL)
	})
}

func (s *Server) analyzeCoreWebVitals(w http.ResponseWriter, r *http.Request) {
	targetURL, ok := s.requestURL(w, r)
	if !ok {
		return
	}
	s.runCoreWebVitals(r.Context(), w, targetURL)
}

func (s *Server) testCoreWebVitals(w http.ResponseWriter, r *http.Request) {
	s.runCoreWebVitals(r.Context(), w, s.cfg.Analyzer.SampleURL)
}

func (s *Server) runCoreWebVitals(ctx context.Context, w http.ResponseWriter, targetURL string) {
	s.runAnalysis(ctx, w, "core-web-vitals", targetURL, func(ctx context.Context) (any, error) {
		return s.analyzers.WebVitals.Query(ctx, targetURL, "PHONE")
	})
}
