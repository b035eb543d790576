// Package secheaders grades the security-related response headers of a site.
package secheaders

import (
	"context"
	"fmt"

	"github.com/sitelens/sitelens/internal/fetch"
)

// Report is the normalized security-header analysis.
type Report struct {
	URL         string         `json:"url"`
	Score       int            `json:"score"`
	Grade       string         `json:"grade"`
	Headers     []HeaderResult `json:"headers"`
	Missing     []string       `json:"missing"`
	Disclosures []HeaderResult `json:"disclosures,omitempty"`
}

// HeaderResult is the evaluation of one tracked header.
type HeaderResult struct {
	Name    string `json:"name"`
	Bucket  string `json:"bucket"`
	Present bool   `json:"present"`
	Value   string `json:"value,omitempty"`
	Advice  string `json:"advice,omitempty"`
}

// pageFetcher fetches the page whose headers are inspected.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Analyzer fetches a URL and scores its security headers.
type Analyzer struct {
	fetcher pageFetcher
}

// NewAnalyzer builds an Analyzer around the shared fetcher.
func NewAnalyzer(fetcher pageFetcher) *Analyzer {
	return &Analyzer{fetcher: fetcher}
}

// Analyze fetches the URL and evaluates its response headers against the
// static header table.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*Report, error) {
	resp, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	report := &Report{URL: url}
	score := 0

	for _, spec := range trackedHeaders {
		value := resp.Headers.Get(spec.Name)
		result := HeaderResult{
			Name:    spec.Name,
			Bucket:  spec.Bucket,
			Present: value != "",
			Value:   value,
		}
		if value != "" {
			score += spec.Weight
		} else {
			result.Advice = spec.Advice
			report.Missing = append(report.Missing, spec.Name)
		}
		report.Headers = append(report.Headers, result)
	}

	for _, spec := range disclosureHeaders {
		value := resp.Headers.Get(spec.Name)
		if value == "" {
			continue
		}
		score -= spec.Weight
		report.Disclosures = append(report.Disclosures, HeaderResult{
			Name:    spec.Name,
			Bucket:  spec.Bucket,
			Present: true,
			Value:   value,
			Advice:  spec.Advice,
		})
	}

	if score < 0 {
		score = 0
	}
	report.Score = score
	report.Grade = gradeFor(score)
	return report, nil
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}
