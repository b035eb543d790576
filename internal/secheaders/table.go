package secheaders

// headerSpec describes one tracked security header.
type headerSpec struct {
	Name   string
	Bucket string
	Weight int
	Advice string
}

// trackedHeaders is the static table of response headers scored when present.
// Weights sum to 100.
var trackedHeaders = []headerSpec{
	{
		Name:   "Content-Security-Policy",
		Bucket: "content",
		Weight: 25,
		Advice: "Define a Content-Security-Policy to restrict where scripts, styles and frames may load from.",
	},
	{
		Name:   "Strict-Transport-Security",
		Bucket: "transport",
		Weight: 20,
		Advice: "Send Strict-Transport-Security so browsers only connect over HTTPS.",
	},
	{
		Name:   "X-Content-Type-Options",
		Bucket: "content",
		Weight: 10,
		Advice: "Set X-Content-Type-Options: nosniff to stop MIME-type sniffing.",
	},
	{
		Name:   "X-Frame-Options",
		Bucket: "framing",
		Weight: 10,
		Advice: "Set X-Frame-Options (or a frame-ancestors CSP directive) to prevent clickjacking.",
	},
	{
		Name:   "Referrer-Policy",
		Bucket: "privacy",
		Weight: 10,
		Advice: "Set Referrer-Policy to limit what referrer information leaves your site.",
	},
	{
		Name:   "Permissions-Policy",
		Bucket: "privacy",
		Weight: 10,
		Advice: "Use Permissions-Policy to disable browser features the site does not need.",
	},
	{
		Name:   "Cross-Origin-Opener-Policy",
		Bucket: "isolation",
		Weight: 5,
		Advice: "Set Cross-Origin-Opener-Policy to isolate the browsing context.",
	},
	{
		Name:   "Cross-Origin-Resource-Policy",
		Bucket: "isolation",
		Weight: 5,
		Advice: "Set Cross-Origin-Resource-Policy to control which origins may load your resources.",
	},
	{
		Name:   "Cross-Origin-Embedder-Policy",
		Bucket: "isolation",
		Weight: 3,
		Advice: "Set Cross-Origin-Embedder-Policy when the page needs cross-origin isolation.",
	},
	{
		Name:   "X-XSS-Protection",
		Bucket: "legacy",
		Weight: 2,
		Advice: "X-XSS-Protection is legacy; prefer a strong Content-Security-Policy.",
	},
}

// disclosureHeaders subtract from the score when present, since they leak
// server implementation details.
var disclosureHeaders = []headerSpec{
	{
		Name:   "Server",
		Bucket: "disclosure",
		Weight: 5,
		Advice: "Strip or genericize the Server header to avoid advertising software versions.",
	},
	{
		Name:   "X-Powered-By",
		Bucket: "disclosure",
		Weight: 5,
		Advice: "Remove X-Powered-By; it discloses the backend stack.",
	},
}
