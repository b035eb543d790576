// Package techstack fingerprints the technologies a website is built with
// and buckets them into coarse groups.
package techstack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"

	"github.com/sitelens/sitelens/internal/fetch"
)

// Report is the normalized tech-stack detection result.
type Report struct {
	URL          string              `json:"url"`
	Technologies []Technology        `json:"technologies"`
	Groups       map[string][]string `json:"groups"`
	Count        int                 `json:"count"`
}

// Technology is one detected technology.
type Technology struct {
	Name       string   `json:"name"`
	Version    string   `json:"version,omitempty"`
	Categories []string `json:"categories"`
	Group      string   `json:"group"`
}

// pageFetcher fetches the page to fingerprint.
type pageFetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// fingerprinter abstracts the wappalyzergo engine for tests.
type fingerprinter interface {
	FingerprintWithInfo(headers map[string][]string, body []byte) map[string]wappalyzer.AppInfo
}

// Detector fetches a page once and fingerprints it.
type Detector struct {
	fetcher pageFetcher
	engine  fingerprinter
}

// NewDetector builds a Detector around the shared fetcher.
func NewDetector(fetcher pageFetcher) (*Detector, error) {
	engine, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("init fingerprint engine: %w", err)
	}
	return &Detector{fetcher: fetcher, engine: engine}, nil
}

// Detect fetches the URL and returns the detected technologies grouped by
// category buckets.
func (d *Detector) Detect(ctx context.Context, url string) (*Report, error) {
	resp, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	matches := d.engine.FingerprintWithInfo(resp.Headers, resp.Body)

	report := &Report{
		URL:    url,
		Groups: make(map[string][]string),
	}
	for match, info := range matches {
		name, version := splitNameVersion(match)
		group := classify(info.Categories)
		report.Technologies = append(report.Technologies, Technology{
			Name:       name,
			Version:    version,
			Categories: info.Categories,
			Group:      group,
		})
		report.Groups[group] = append(report.Groups[group], name)
	}

	sort.Slice(report.Technologies, func(i, j int) bool {
		return report.Technologies[i].Name < report.Technologies[j].Name
	})
	for _, names := range report.Groups {
		sort.Strings(names)
	}
	report.Count = len(report.Technologies)
	return report, nil
}

// splitNameVersion separates "Apache:2.4.41" style fingerprint keys.
func splitNameVersion(match string) (string, string) {
	name, version, _ := strings.Cut(match, ":")
	return name, version
}
