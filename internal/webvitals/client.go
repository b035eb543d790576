// Package webvitals queries the Chrome UX Report API for Core Web Vitals
// field data and reshapes the record.
package webvitals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://chromeuxreport.googleapis.com/v1/records:queryRecord"

// ErrNoData is returned when CrUX has no field data for the URL.
var ErrNoData = fmt.Errorf("no field data available for this url")

// Client queries the Chrome UX Report endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a Client. The base URL is overridable for tests.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option customizes the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Report is the normalized Core Web Vitals field-data response.
type Report struct {
	URL        string          `json:"url"`
	FormFactor string          `json:"formFactor"`
	Metrics    []MetricSummary `json:"metrics"`
	Period     *Period         `json:"collectionPeriod,omitempty"`
}

// MetricSummary is one metric's p75, rating and histogram.
type MetricSummary struct {
	Name      string  `json:"name"`
	P75       float64 `json:"p75"`
	Rating    string  `json:"rating"`
	Histogram []Bin   `json:"histogram"`
}

// Bin is one histogram bucket. End is nil for the open-ended last bucket.
type Bin struct {
	Start   float64  `json:"start"`
	End     *float64 `json:"end,omitempty"`
	Density float64  `json:"density"`
}

// Period is the CrUX data collection window.
type Period struct {
	FirstDate string `json:"firstDate"`
	LastDate  string `json:"lastDate"`
}

// metricInfo carries the normalized name plus good/poor rating thresholds.
type metricInfo struct {
	name string
	good float64
	poor float64
}

// cruxMetrics maps CrUX metric keys to normalized names and thresholds.
// Order fixes the output ordering.
var cruxMetricOrder = []string{
	"largest_contentful_paint",
	"interaction_to_next_paint",
	"cumulative_layout_shift",
	"first_contentful_paint",
	"experimental_time_to_first_byte",
}

var cruxMetrics = map[string]metricInfo{
	"largest_contentful_paint":        {name: "lcp", good: 2500, poor: 4000},
	"interaction_to_next_paint":       {name: "inp", good: 200, poor: 500},
	"cumulative_layout_shift":         {name: "cls", good: 0.1, poor: 0.25},
	"first_contentful_paint":          {name: "fcp", good: 1800, poor: 3000},
	"experimental_time_to_first_byte": {name: "ttfb", good: 800, poor: 1800},
}

type rawResponse struct {
	Record *rawRecord   `json:"record"`
	Error  *rawAPIError `json:"error"`
}

type rawRecord struct {
	Metrics          map[string]rawMetric `json:"metrics"`
	CollectionPeriod *rawPeriod           `json:"collectionPeriod"`
}

type rawMetric struct {
	Histogram   []rawBin       `json:"histogram"`
	Percentiles rawPercentiles `json:"percentiles"`
}

type rawPercentiles struct {
	P75 flexNumber `json:"p75"`
}

type rawBin struct {
	Start   flexNumber  `json:"start"`
	End     *flexNumber `json:"end"`
	Density float64     `json:"density"`
}

type rawPeriod struct {
	FirstDate rawDate `json:"firstDate"`
	LastDate  rawDate `json:"lastDate"`
}

type rawDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type rawAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// flexNumber decodes CrUX values that arrive as either JSON numbers or
// numeric strings (CLS values are strings).
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse numeric value %q: %w", string(data), err)
	}
	*f = flexNumber(v)
	return nil
}

// Query fetches the CrUX record for the URL on the given form factor
// (PHONE, DESKTOP or TABLET).
func (c *Client) Query(ctx context.Context, pageURL, formFactor string) (*Report, error) {
	if formFactor == "" {
		formFactor = "PHONE"
	}

	payload, err := json.Marshal(map[string]string{
		"url":        pageURL,
		"formFactor": formFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("encode crux request: %w", err)
	}

	endpoint := c.baseURL
	if c.apiKey != "" {
		endpoint += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build crux request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call crux: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read crux response: %w", err)
	}

	// CrUX answers 404 when it has no data for the origin/URL.
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}

	if resp.StatusCode != http.StatusOK {
		// Error bodies are usually structured JSON, but proxies can answer
		// with HTML; only use the decoded message when it parses.
		var raw rawResponse
		if err := json.Unmarshal(body, &raw); err == nil && raw.Error != nil {
			return nil, fmt.Errorf("crux api error %d: %s", raw.Error.Code, raw.Error.Message)
		}
		return nil, fmt.Errorf("crux api returned status %d", resp.StatusCode)
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode crux response: %w", err)
	}
	if raw.Record == nil || len(raw.Record.Metrics) == 0 {
		return nil, ErrNoData
	}

	return reshapeRecord(pageURL, formFactor, raw.Record), nil
}

func reshapeRecord(pageURL, formFactor string, record *rawRecord) *Report {
	report := &Report{URL: pageURL, FormFactor: formFactor}

	for _, key := range cruxMetricOrder {
		metric, ok := record.Metrics[key]
		if !ok {
			continue
		}
		info := cruxMetrics[key]
		p75 := float64(metric.Percentiles.P75)

		summary := MetricSummary{
			Name:   info.name,
			P75:    p75,
			Rating: rate(p75, info),
		}
		for _, bin := range metric.Histogram {
			b := Bin{Start: float64(bin.Start), Density: bin.Density}
			if bin.End != nil {
				end := float64(*bin.End)
				b.End = &end
			}
			summary.Histogram = append(summary.Histogram, b)
		}
		report.Metrics = append(report.Metrics, summary)
	}

	if record.CollectionPeriod != nil {
		report.Period = &Period{
			FirstDate: record.CollectionPeriod.FirstDate.String(),
			LastDate:  record.CollectionPeriod.LastDate.String(),
		}
	}
	return report
}

func rate(p75 float64, info metricInfo) string {
	switch {
	case p75 <= info.good:
		return "good"
	case p75 <= info.poor:
		return "needs-improvement"
	default:
		return "poor"
	}
}

func (d rawDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
