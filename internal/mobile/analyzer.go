package mobile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/fetch"
)

// pageRenderer renders a page and returns its HTML after script execution.
type pageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// pageFetcher is the plain HTTP fallback when headless rendering is off.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Analyzer runs the mobile-friendliness heuristics over a rendered page.
type Analyzer struct {
	renderer pageRenderer
	fetcher  pageFetcher
	logger   *zap.Logger
}

// NewAnalyzer builds an Analyzer. The renderer may be nil, in which case
// pages are fetched without script execution.
func NewAnalyzer(renderer pageRenderer, fetcher pageFetcher, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{renderer: renderer, fetcher: fetcher, logger: logger}
}

// Analyze renders or fetches the URL and sniffs the HTML.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*Report, error) {
	html, renderedWith, err := a.pageHTML(ctx, url)
	if err != nil {
		return nil, err
	}

	report, err := Sniff(html)
	if err != nil {
		return nil, err
	}
	report.URL = url
	report.RenderedWith = renderedWith
	a.logger.Debug("mobile analysis complete",
		zap.String("url", url),
		zap.Int("score", report.Score),
		zap.Bool("friendly", report.Friendly),
	)
	return report, nil
}

func (a *Analyzer) pageHTML(ctx context.Context, url string) (string, string, error) {
	if a.renderer != nil {
		html, err := a.renderer.Render(ctx, url)
		if err != nil {
			return "", "", fmt.Errorf("render page: %w", err)
		}
		return html, "headless-chrome", nil
	}
	resp, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("fetch page: %w", err)
	}
	return string(resp.Body), "http", nil
}
