package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare host gets https", input: "example.com", want: "https://example.com"},
		{name: "scheme and host lowercased", input: "HTTPS://Example.COM/Path", want: "https://example.com/Path"},
		{name: "default https port stripped", input: "https://example.com:443/a", want: "https://example.com/a"},
		{name: "default http port stripped", input: "http://example.com:80", want: "http://example.com"},
		{name: "non-default port kept", input: "https://example.com:8443", want: "https://example.com:8443"},
		{name: "fragment removed", input: "https://example.com/page#section", want: "https://example.com/page"},
		{name: "query preserved", input: "https://example.com/?b=2&a=1", want: "https://example.com/?b=2&a=1"},
		{name: "surrounding whitespace trimmed", input: "  example.com  ", want: "https://example.com"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "unsupported scheme", input: "ftp://example.com", wantErr: true},
		{name: "no host", input: "https:///path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewFailure(t *testing.T) {
	t.Parallel()

	f := NewFailure("https://example.com", "lighthouse failed")
	require.True(t, f.Error)
	require.Equal(t, "https://example.com", f.URL)
	require.Equal(t, "lighthouse failed", f.Message)
}
