package lighthouse

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Report is the normalized Lighthouse result returned to API clients.
type Report struct {
	URL               string             `json:"url"`
	FinalURL          string             `json:"finalUrl"`
	FetchTime         string             `json:"fetchTime"`
	LighthouseVersion string             `json:"lighthouseVersion"`
	Scores            map[string]float64 `json:"scores"`
	Metrics           []Metric           `json:"metrics"`
	Timeline          []Frame            `json:"timeline"`
}

// Metric is one lab metric from the performance audits.
type Metric struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Score        *float64 `json:"score"`
	NumericValue float64  `json:"numericValue"`
	DisplayValue string   `json:"displayValue"`
}

// Frame is one entry of the reconciled screenshot timeline.
type Frame struct {
	TimingMS float64  `json:"timingMs"`
	Data     string   `json:"data"`
	Final    bool     `json:"final"`
	Events   []string `json:"events,omitempty"`
}

// metricAuditIDs fixes the set and order of lab metrics surfaced in the report.
var metricAuditIDs = []string{
	"first-contentful-paint",
	"largest-contentful-paint",
	"total-blocking-time",
	"cumulative-layout-shift",
	"speed-index",
	"interactive",
}

// timelineEvents maps audit IDs to the event labels attached to frames.
var timelineEvents = map[string]string{
	"first-contentful-paint":   "FCP",
	"largest-contentful-paint": "LCP",
	"interactive":              "TTI",
}

type rawReport struct {
	RequestedURL      string                 `json:"requestedUrl"`
	FinalURL          string                 `json:"finalUrl"`
	FetchTime         string                 `json:"fetchTime"`
	LighthouseVersion string                 `json:"lighthouseVersion"`
	RuntimeError      *rawRuntimeError       `json:"runtimeError"`
	Categories        map[string]rawCategory `json:"categories"`
	Audits            map[string]rawAudit    `json:"audits"`
}

type rawRuntimeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rawCategory struct {
	Score *float64 `json:"score"`
}

type rawAudit struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Score        *float64    `json:"score"`
	NumericValue float64     `json:"numericValue"`
	DisplayValue string      `json:"displayValue"`
	Details      *rawDetails `json:"details"`
}

// rawDetails covers both the filmstrip shape (items) and the single final
// screenshot shape (timing/data at the top level).
type rawDetails struct {
	Type   string     `json:"type"`
	Items  []rawFrame `json:"items"`
	Timing float64    `json:"timing"`
	Data   string     `json:"data"`
}

type rawFrame struct {
	Timing float64 `json:"timing"`
	Data   string  `json:"data"`
}

// ParseReport decodes a raw Lighthouse JSON report and reshapes it.
func ParseReport(data []byte) (*Report, error) {
	var raw rawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if raw.RuntimeError != nil && raw.RuntimeError.Code != "" && raw.RuntimeError.Code != "NO_ERROR" {
		return nil, fmt.Errorf("lighthouse runtime error %s: %s", raw.RuntimeError.Code, raw.RuntimeError.Message)
	}
	if len(raw.Categories) == 0 {
		return nil, fmt.Errorf("report has no categories")
	}

	report := &Report{
		URL:               raw.RequestedURL,
		FinalURL:          raw.FinalURL,
		FetchTime:         raw.FetchTime,
		LighthouseVersion: raw.LighthouseVersion,
		Scores:            make(map[string]float64, len(raw.Categories)),
	}

	for name, cat := range raw.Categories {
		if cat.Score == nil {
			continue
		}
		report.Scores[name] = math.Round(*cat.Score * 100)
	}

	for _, id := range metricAuditIDs {
		audit, ok := raw.Audits[id]
		if !ok {
			continue
		}
		report.Metrics = append(report.Metrics, Metric{
			ID:           id,
			Title:        audit.Title,
			Score:        audit.Score,
			NumericValue: audit.NumericValue,
			DisplayValue: audit.DisplayValue,
		})
	}

	report.Timeline = buildTimeline(raw.Audits)
	return report, nil
}

// buildTimeline reconciles the filmstrip thumbnails with the final screenshot
// and attaches metric events to the frames they fall into. Frames are ordered
// by timing and adjacent identical images are collapsed.
func buildTimeline(audits map[string]rawAudit) []Frame {
	var frames []Frame

	if thumbs, ok := audits["screenshot-thumbnails"]; ok && thumbs.Details != nil {
		for _, item := range thumbs.Details.Items {
			if item.Data == "" {
				continue
			}
			frames = append(frames, Frame{TimingMS: item.Timing, Data: item.Data})
		}
	}

	if final, ok := audits["final-screenshot"]; ok && final.Details != nil && final.Details.Data != "" {
		frames = append(frames, Frame{
			TimingMS: final.Details.Timing,
			Data:     final.Details.Data,
			Final:    true,
		})
	}

	if len(frames) == 0 {
		return nil
	}

	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].TimingMS < frames[j].TimingMS
	})

	deduped := frames[:1]
	for _, frame := range frames[1:] {
		last := &deduped[len(deduped)-1]
		if frame.Data == last.Data {
			// Same image: keep the earlier frame but remember it is final.
			last.Final = last.Final || frame.Final
			continue
		}
		deduped = append(deduped, frame)
	}

	attachEvents(deduped, audits)
	return deduped
}

// attachEvents assigns each metric event to the first frame whose timing is
// at or after the metric's value; events past the last frame land on it.
func attachEvents(frames []Frame, audits map[string]rawAudit) {
	type event struct {
		label  string
		timing float64
	}
	var events []event
	for id, label := range timelineEvents {
		audit, ok := audits[id]
		if !ok || audit.NumericValue <= 0 {
			continue
		}
		events = append(events, event{label: label, timing: audit.NumericValue})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].timing == events[j].timing {
			return events[i].label < events[j].label
		}
		return events[i].timing < events[j].timing
	})

	for _, ev := range events {
		idx := len(frames) - 1
		for i := range frames {
			if frames[i].TimingMS >= ev.timing {
				idx = i
				break
			}
		}
		frames[idx].Events = append(frames[idx].Events, ev.label)
	}
}
