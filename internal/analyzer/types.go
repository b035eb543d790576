// Package analyzer defines the request and error shapes shared by every
// analysis endpoint.
package analyzer

// Request is the JSON body accepted by the POST analysis routes.
type Request struct {
	URL string `json:"url"`
}

// Failure is the uniform error envelope. Analyzer faults are reported to the
// client with HTTP 200 and this body; the Error flag distinguishes them from
// successful payloads.
type Failure struct {
	URL     string `json:"url"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// NewFailure builds the envelope for a failed analysis.
func NewFailure(url, message string) Failure {
	return Failure{URL: url, Error: true, Message: message}
}
