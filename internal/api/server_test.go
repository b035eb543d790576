package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
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

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type fakeLighthouse struct {
	gotURL string
	report *lighthouse.Report
	err    error
}

func (f *fakeLighthouse) Audit(_ context.Context, url string) (*lighthouse.Report, error) {
	f.gotURL = url
	return f.report, f.err
}

type fakeWebsite struct {
	gotURL      string
	gotStrategy string
	result      *pagespeed.Result
	err         error
}

func (f *fakeWebsite) Analyze(_ context.Context, url, strategy string) (*pagespeed.Result, error) {
	f.gotURL = url
	f.gotStrategy = strategy
	return f.result, f.err
}

type fakeTech struct {
	gotURL string
	report *techstack.Report
	err    error
}

func (f *fakeTech) Detect(_ context.Context, url string) (*techstack.Report, error) {
	f.gotURL = url
	return f.report, f.err
}

type fakeHeaders struct {
	gotURL string
	report *secheaders.Report
	err    error
}

func (f *fakeHeaders) Analyze(_ context.Context, url string) (*secheaders.Report, error) {
	f.gotURL = url
	return f.report, f.err
}

type fakeMobile struct {
	gotURL string
	report *mobile.Report
	err    error
	panics bool
}

func (f *fakeMobile) Analyze(_ context.Context, url string) (*mobile.Report, error) {
	if f.panics {
		panic("mobile analyzer blew up")
	}
	f.gotURL = url
	return f.report, f.err
}

type fakeVitals struct {
	gotURL        string
	gotFormFactor string
	report        *webvitals.Report
	err           error
}

func (f *fakeVitals) Query(_ context.Context, url, formFactor string) (*webvitals.Report, error) {
	f.gotURL = url
	f.gotFormFactor = formFactor
	return f.report, f.err
}

func testConfig() config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Analyzer.SampleURL = "https://sample.example.com"
	return cfg
}

func newTestServer(analyzers Analyzers) *Server {
	return NewServer(testConfig(), analyzers, zap.NewNop())
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()

	server := newTestServer(Analyzers{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(Analyzers{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeaderSet(t *testing.T) {
	t.Parallel()

	server := newTestServer(Analyzers{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	t.Parallel()

	server := newTestServer(Analyzers{})
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze/lighthouse", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicInAnalyzerIsRecovered(t *testing.T) {
	t.Parallel()

	server := newTestServer(Analyzers{Mobile: &fakeMobile{panics: true}})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze/mobile-friendly",
		jsonBody(`{"url":"https://example.com"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
