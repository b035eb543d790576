package techstack

import (
	"context"
	"errors"
	"net/http"
	"testing"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
	"github.com/stretchr/testify/require"

	"github.com/sitelens/sitelens/internal/fetch"
)

type fakeFetcher struct {
	resp fetch.Response
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (fetch.Response, error) {
	return f.resp, f.err
}

type fakeEngine struct {
	matches map[string]wappalyzer.AppInfo
}

func (f *fakeEngine) FingerprintWithInfo(_ map[string][]string, _ []byte) map[string]wappalyzer.AppInfo {
	return f.matches
}

func TestDetectGroupsAndSorts(t *testing.T) {
	t.Parallel()

	d := &Detector{
		fetcher: &fakeFetcher{resp: fetch.Response{
			StatusCode: http.StatusOK,
			Headers:    http.Header{"Server": []string{"nginx"}},
			Body:       []byte("<html></html>"),
		}},
		engine: &fakeEngine{matches: map[string]wappalyzer.AppInfo{
			"WordPress:6.4":    {Categories: []string{"CMS", "Blogs"}},
			"Nginx":            {Categories: []string{"Web servers", "Reverse proxies"}},
			"Google Analytics": {Categories: []string{"Analytics"}},
			"React":            {Categories: []string{"JavaScript frameworks"}},
			"MysteryTech":      {Categories: []string{"Something unrecognizable"}},
		}},
	}

	report, err := d.Detect(context.Background(), "https://example.com")
	require.NoError(t, err)

	require.Equal(t, 5, report.Count)
	require.Equal(t, "Google Analytics", report.Technologies[0].Name)

	var wp Technology
	for _, tech := range report.Technologies {
		if tech.Name == "WordPress" {
			wp = tech
		}
	}
	require.Equal(t, "6.4", wp.Version)
	require.Equal(t, "cms", wp.Group)

	require.Equal(t, []string{"WordPress"}, report.Groups["cms"])
	require.Equal(t, []string{"Nginx"}, report.Groups["server"])
	require.Equal(t, []string{"Google Analytics"}, report.Groups["analytics"])
	require.Equal(t, []string{"React"}, report.Groups["javascript"])
	require.Equal(t, []string{"MysteryTech"}, report.Groups["other"])
}

func TestDetectFetchError(t *testing.T) {
	t.Parallel()

	d := &Detector{
		fetcher: &fakeFetcher{err: errors.New("connection refused")},
		engine:  &fakeEngine{},
	}

	_, err := d.Detect(context.Background(), "https://down.example")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch page")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		categories []string
		want       string
	}{
		{[]string{"CMS"}, "cms"},
		{[]string{"Ecommerce"}, "ecommerce"},
		{[]string{"JavaScript frameworks"}, "javascript"},
		{[]string{"Web frameworks"}, "framework"},
		{[]string{"Analytics"}, "analytics"},
		{[]string{"CDN"}, "cdn"},
		{[]string{"Web servers"}, "server"},
		{[]string{"Programming languages"}, "language"},
		{[]string{"PaaS"}, "hosting"},
		{[]string{"Security"}, "security"},
		{[]string{"Databases"}, "database"},
		{[]string{"Unheard of"}, "other"},
		{nil, "other"},
		// First matching group wins when multiple apply.
		{[]string{"Blogs", "JavaScript libraries"}, "cms"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, classify(tt.categories), "categories %v", tt.categories)
	}
}

func TestGroupTable(t *testing.T) {
	t.Parallel()

	want := []string{
		"cms", "ecommerce", "analytics", "marketing", "cdn", "security",
		"server", "language", "hosting", "framework", "javascript", "database",
	}
	require.Len(t, groupKeywords, len(want))
	for i, entry := range groupKeywords {
		require.Equal(t, want[i], entry.group)
		require.NotEmpty(t, entry.keywords, entry.group)
	}
}

func TestSplitNameVersion(t *testing.T) {
	t.Parallel()

	name, version := splitNameVersion("Apache:2.4.41")
	require.Equal(t, "Apache", name)
	require.Equal(t, "2.4.41", version)

	name, version = splitNameVersion("Cloudflare")
	require.Equal(t, "Cloudflare", name)
	require.Empty(t, version)
}

func TestNewDetectorInitializesEngine(t *testing.T) {
	t.Parallel()

	d, err := NewDetector(&fakeFetcher{})
	require.NoError(t, err)
	require.NotNil(t, d)
}
