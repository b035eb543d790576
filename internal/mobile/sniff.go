package mobile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Report is the normalized mobile-friendliness result.
type Report struct {
	URL          string  `json:"url"`
	Friendly     bool    `json:"friendly"`
	Score        int     `json:"score"`
	Checks       []Check `json:"checks"`
	RenderedWith string  `json:"renderedWith"`
}

// Check is one mobile-friendliness heuristic.
type Check struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Passed bool   `json:"passed"`
	Weight int    `json:"weight"`
	Detail string `json:"detail,omitempty"`
}

const friendlyThreshold = 80

// Minimum rendered size for a comfortable tap target.
const (
	minTapTargetPx   = 40
	minTapTargetFont = 10.0
)

var (
	fontSizeRe    = regexp.MustCompile(`font-size:\s*(\d+(?:\.\d+)?)px`)
	fixedWidthRe  = regexp.MustCompile(`width:\s*(\d+)px`)
	fixedHeightRe = regexp.MustCompile(`height:\s*(\d+)px`)
	numericWidth  = regexp.MustCompile(`width\s*=\s*(\d+)`)
)

// Sniff evaluates the rendered HTML against the mobile heuristics.
func Sniff(html string) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	report := &Report{}
	report.Checks = []Check{
		checkViewportPresent(doc),
		checkViewportDeviceWidth(doc),
		checkLegibleFontSizes(doc),
		checkContentWidth(doc),
		checkTapTargets(doc),
		checkNoPluginContent(doc),
	}

	score := 0
	for _, check := range report.Checks {
		if check.Passed {
			score += check.Weight
		}
	}
	report.Score = score
	report.Friendly = score >= friendlyThreshold && report.Checks[0].Passed
	return report, nil
}

func checkViewportPresent(doc *goquery.Document) Check {
	check := Check{
		ID:     "viewport-present",
		Title:  "Has a viewport meta tag",
		Weight: 30,
	}
	content, exists := viewportContent(doc)
	check.Passed = exists
	if !exists {
		check.Detail = "no <meta name=\"viewport\"> tag found"
	} else {
		check.Detail = content
	}
	return check
}

func checkViewportDeviceWidth(doc *goquery.Document) Check {
	check := Check{
		ID:     "viewport-device-width",
		Title:  "Viewport is configured for device width",
		Weight: 20,
	}
	content, exists := viewportContent(doc)
	if !exists {
		check.Detail = "no viewport to inspect"
		return check
	}
	lower := strings.ToLower(content)
	if strings.Contains(lower, "width=device-width") {
		check.Passed = true
		return check
	}
	if m := numericWidth.FindStringSubmatch(lower); m != nil {
		check.Detail = fmt.Sprintf("viewport is fixed to %s px", m[1])
		return check
	}
	check.Detail = "viewport does not set width=device-width"
	return check
}

func checkLegibleFontSizes(doc *goquery.Document) Check {
	check := Check{
		ID:     "legible-font-sizes",
		Title:  "Text is legible without zooming",
		Weight: 15,
	}
	tiny := 0
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		for _, m := range fontSizeRe.FindAllStringSubmatch(style, -1) {
			if size, err := strconv.ParseFloat(m[1], 64); err == nil && size < 12 {
				tiny++
			}
		}
	})
	if tiny == 0 {
		check.Passed = true
		return check
	}
	check.Detail = fmt.Sprintf("%d element(s) use font sizes below 12px", tiny)
	return check
}

func checkContentWidth(doc *goquery.Document) Check {
	check := Check{
		ID:     "content-width",
		Title:  "Content fits the mobile viewport",
		Weight: 15,
	}
	wide := 0
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		for _, m := range fixedWidthRe.FindAllStringSubmatch(style, -1) {
			if width, err := strconv.Atoi(m[1]); err == nil && width > deviceWidth {
				wide++
			}
		}
	})
	doc.Find("img[width], table[width]").Each(func(_ int, sel *goquery.Selection) {
		attr, _ := sel.Attr("width")
		if width, err := strconv.Atoi(strings.TrimSuffix(attr, "px")); err == nil && width > deviceWidth {
			wide++
		}
	})
	if wide == 0 {
		check.Passed = true
		return check
	}
	check.Detail = fmt.Sprintf("%d element(s) are wider than %dpx", wide, deviceWidth)
	return check
}

// checkTapTargets counts links and buttons whose inline styling makes them
// too small to tap reliably; a proxy for tap-target spacing without layout.
func checkTapTargets(doc *goquery.Document) Check {
	check := Check{
		ID:     "tap-targets",
		Title:  "Tap targets are large enough",
		Weight: 10,
	}
	tiny := 0
	doc.Find("a[style], button[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		if m := fixedWidthRe.FindStringSubmatch(style); m != nil {
			if width, err := strconv.Atoi(m[1]); err == nil && width < minTapTargetPx {
				tiny++
				return
			}
		}
		if m := fixedHeightRe.FindStringSubmatch(style); m != nil {
			if height, err := strconv.Atoi(m[1]); err == nil && height < minTapTargetPx {
				tiny++
				return
			}
		}
		if m := fontSizeRe.FindStringSubmatch(style); m != nil {
			if size, err := strconv.ParseFloat(m[1], 64); err == nil && size < minTapTargetFont {
				tiny++
			}
		}
	})
	if tiny == 0 {
		check.Passed = true
		return check
	}
	check.Detail = fmt.Sprintf("%d link(s) or button(s) are too small to tap reliably", tiny)
	return check
}

func checkNoPluginContent(doc *goquery.Document) Check {
	check := Check{
		ID:     "no-plugin-content",
		Title:  "Avoids plugin content unsupported on mobile",
		Weight: 10,
	}
	plugins := doc.Find("applet").Length()
	doc.Find("object, embed").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("data")
		if src == "" {
			src, _ = sel.Attr("src")
		}
		typ, _ := sel.Attr("type")
		if strings.Contains(strings.ToLower(src), ".swf") || strings.Contains(strings.ToLower(typ), "flash") {
			plugins++
		}
	})
	if plugins == 0 {
		check.Passed = true
		return check
	}
	check.Detail = fmt.Sprintf("%d plugin element(s) found", plugins)
	return check
}

func viewportContent(doc *goquery.Document) (string, bool) {
	sel := doc.Find(`meta[name="viewport"]`).First()
	if sel.Length() == 0 {
		return "", false
	}
	content, _ := sel.Attr("content")
	return content, true
}
