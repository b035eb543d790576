package secheaders

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sitelens/sitelens/internal/fetch"
)

type fakeFetcher struct {
	headers http.Header
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (fetch.Response, error) {
	if f.err != nil {
		return fetch.Response{}, f.err
	}
	return fetch.Response{URL: url, StatusCode: http.StatusOK, Headers: f.headers}, nil
}

func TestAnalyzeAllHeadersPresent(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	for _, spec := range trackedHeaders {
		headers.Set(spec.Name, "some-value")
	}

	a := NewAnalyzer(&fakeFetcher{headers: headers})
	report, err := a.Analyze(context.Background(), "https://secure.example")
	require.NoError(t, err)

	require.Equal(t, 100, report.Score)
	require.Equal(t, "A", report.Grade)
	require.Empty(t, report.Missing)
	require.Empty(t, report.Disclosures)
	require.Len(t, report.Headers, len(trackedHeaders))
}

func TestAnalyzeNoHeaders(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&fakeFetcher{headers: http.Header{}})
	report, err := a.Analyze(context.Background(), "https://bare.example")
	require.NoError(t, err)

	require.Equal(t, 0, report.Score)
	require.Equal(t, "F", report.Grade)
	require.Len(t, report.Missing, len(trackedHeaders))
	for _, result := range report.Headers {
		require.False(t, result.Present)
		require.NotEmpty(t, result.Advice)
	}
}

func TestAnalyzeDisclosurePenalty(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	for _, spec := range trackedHeaders {
		headers.Set(spec.Name, "value")
	}
	headers.Set("Server", "nginx/1.25.3")
	headers.Set("X-Powered-By", "PHP/8.2")

	a := NewAnalyzer(&fakeFetcher{headers: headers})
	report, err := a.Analyze(context.Background(), "https://leaky.example")
	require.NoError(t, err)

	require.Equal(t, 90, report.Score)
	require.Equal(t, "A", report.Grade)
	require.Len(t, report.Disclosures, 2)
	require.Equal(t, "nginx/1.25.3", report.Disclosures[0].Value)
}

func TestAnalyzePartialCoverage(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("Strict-Transport-Security", "max-age=63072000")
	headers.Set("X-Content-Type-Options", "nosniff")
	headers.Set("X-Frame-Options", "SAMEORIGIN")

	a := NewAnalyzer(&fakeFetcher{headers: headers})
	report, err := a.Analyze(context.Background(), "https://partial.example")
	require.NoError(t, err)

	// 20 + 10 + 10
	require.Equal(t, 40, report.Score)
	require.Equal(t, "D", report.Grade)
	require.Contains(t, report.Missing, "Content-Security-Policy")
}

func TestAnalyzeFetchError(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(&fakeFetcher{err: errors.New("tls handshake failure")})
	_, err := a.Analyze(context.Background(), "https://down.example")
	require.Error(t, err)
}

func TestTrackedHeaderTable(t *testing.T) {
	t.Parallel()

	buckets := map[string]bool{
		"transport":  true,
		"content":    true,
		"framing":    true,
		"privacy":    true,
		"isolation":  true,
		"legacy":     true,
		"disclosure": true,
	}

	total := 0
	for _, spec := range trackedHeaders {
		total += spec.Weight
		require.True(t, buckets[spec.Bucket], "unknown bucket %q for %s", spec.Bucket, spec.Name)
	}
	require.Equal(t, 100, total)

	for _, spec := range disclosureHeaders {
		require.Equal(t, "disclosure", spec.Bucket, spec.Name)
	}
}

func TestGradeBoundaries(t *testing.T) {
	t.Parallel()

	require.Equal(t, "A", gradeFor(90))
	require.Equal(t, "B", gradeFor(89))
	require.Equal(t, "B", gradeFor(75))
	require.Equal(t, "C", gradeFor(74))
	require.Equal(t, "C", gradeFor(60))
	require.Equal(t, "D", gradeFor(59))
	require.Equal(t, "D", gradeFor(40))
	require.Equal(t, "F", gradeFor(39))
	require.Equal(t, "F", gradeFor(0))
}
