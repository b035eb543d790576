package techstack

import "strings"

// groupKeywords buckets fingerprint categories into coarse groups. The first
// matching entry wins, so more specific groups come first.
var groupKeywords = []struct {
	group    string
	keywords []string
}{
	{"cms", []string{"cms", "blog", "wiki", "documentation tool"}},
	{"ecommerce", []string{"ecommerce", "shop", "cart", "payment"}},
	{"analytics", []string{"analytics", "tag manager", "rum", "a/b testing"}},
	{"marketing", []string{"marketing", "advertising", "seo", "email", "crm", "live chat"}},
	{"cdn", []string{"cdn", "content delivery"}},
	{"security", []string{"security", "firewall", "captcha", "waf"}},
	{"server", []string{"web server", "reverse proxy", "caching", "load balancer"}},
	{"language", []string{"programming language"}},
	{"hosting", []string{"paas", "iaas", "hosting", "cloud"}},
	{"framework", []string{"framework", "static site generator"}},
	{"javascript", []string{"javascript", "ui library", "font script"}},
	{"database", []string{"database"}},
}

// classify maps a technology's categories to one group, defaulting to "other".
func classify(categories []string) string {
	for _, entry := range groupKeywords {
		for _, category := range categories {
			lower := strings.ToLower(category)
			for _, keyword := range entry.keywords {
				if strings.Contains(lower, keyword) {
					return entry.group
				}
			}
		}
	}
	return "other"
}
