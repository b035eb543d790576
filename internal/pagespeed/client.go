// Package pagespeed calls the Google PageSpeed Insights API and reshapes
// its payload.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sitelens/sitelens/internal/lighthouse"
)

const defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// fieldMetricNames maps PageSpeed field-data keys to normalized metric names.
var fieldMetricNames = map[string]string{
	"LARGEST_CONTENTFUL_PAINT_MS":     "largest-contentful-paint",
	"INTERACTION_TO_NEXT_PAINT":       "interaction-to-next-paint",
	"CUMULATIVE_LAYOUT_SHIFT_SCORE":   "cumulative-layout-shift",
	"FIRST_CONTENTFUL_PAINT_MS":       "first-contentful-paint",
	"EXPERIMENTAL_TIME_TO_FIRST_BYTE": "time-to-first-byte",
	"FIRST_INPUT_DELAY_MS":            "first-input-delay",
}

// Client queries the PageSpeed Insights endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a Client. The base URL is overridable for tests.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
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

// Result is the normalized PageSpeed Insights response.
type Result struct {
	URL      string             `json:"url"`
	Strategy string             `json:"strategy"`
	Lab      *lighthouse.Report `json:"lab"`
	Field    *FieldData         `json:"field,omitempty"`
}

// FieldData carries real-user metrics from the loading experience section.
type FieldData struct {
	OverallCategory string        `json:"overallCategory"`
	Metrics         []FieldMetric `json:"metrics"`
}

// FieldMetric is one real-user metric percentile with its rating category.
type FieldMetric struct {
	Name       string  `json:"name"`
	Percentile float64 `json:"percentile"`
	Category   string  `json:"category"`
}

type rawResponse struct {
	LighthouseResult  json.RawMessage       `json:"lighthouseResult"`
	LoadingExperience *rawLoadingExperience `json:"loadingExperience"`
	Error             *rawAPIError          `json:"error"`
}

type rawLoadingExperience struct {
	OverallCategory string                    `json:"overall_category"`
	Metrics         map[string]rawFieldMetric `json:"metrics"`
}

type rawFieldMetric struct {
	Percentile float64 `json:"percentile"`
	Category   string  `json:"category"`
}

type rawAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Analyze runs PageSpeed Insights for the URL with the given strategy
// ("mobile" or "desktop").
func (c *Client) Analyze(ctx context.Context, pageURL, strategy string) (*Result, error) {
	if strategy == "" {
		strategy = "mobile"
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", strategy)
	for _, cat := range lighthouse.DefaultCategories {
		q.Add("category", cat)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pagespeed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call pagespeed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pagespeed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Error bodies are usually structured JSON, but proxies can answer
		// with HTML; only use the decoded message when it parses.
		var raw rawResponse
		if err := json.Unmarshal(body, &raw); err == nil && raw.Error != nil {
			return nil, fmt.Errorf("pagespeed api error %d: %s", raw.Error.Code, raw.Error.Message)
		}
		return nil, fmt.Errorf("pagespeed api returned status %d", resp.StatusCode)
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode pagespeed response: %w", err)
	}
	if len(raw.LighthouseResult) == 0 {
		return nil, fmt.Errorf("pagespeed response has no lighthouse result")
	}

	lab, err := lighthouse.ParseReport(raw.LighthouseResult)
	if err != nil {
		return nil, fmt.Errorf("reshape lab data: %w", err)
	}

	result := &Result{
		URL:      pageURL,
		Strategy: strategy,
		Lab:      lab,
	}
	if raw.LoadingExperience != nil && len(raw.LoadingExperience.Metrics) > 0 {
		result.Field = reshapeField(raw.LoadingExperience)
	}
	return result, nil
}

func reshapeField(le *rawLoadingExperience) *FieldData {
	field := &FieldData{OverallCategory: le.OverallCategory}
	// Fixed iteration order keeps the output deterministic.
	for _, key := range []string{
		"LARGEST_CONTENTFUL_PAINT_MS",
		"INTERACTION_TO_NEXT_PAINT",
		"CUMULATIVE_LAYOUT_SHIFT_SCORE",
		"FIRST_CONTENTFUL_PAINT_MS",
		"EXPERIMENTAL_TIME_TO_FIRST_BYTE",
		"FIRST_INPUT_DELAY_MS",
	} {
		metric, ok := le.Metrics[key]
		if !ok {
			continue
		}
		field.Metrics = append(field.Metrics, FieldMetric{
			Name:       fieldMetricNames[key],
			Percentile: metric.Percentile,
			Category:   metric.Category,
		})
	}
	return field
}
