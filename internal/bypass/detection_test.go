package bypass

import (
	"net/http"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   string
	}{
		{
			name:   "cloudflare server header",
			status: http.StatusForbidden,
			header: http.Header{"Server": []string{"cloudflare"}},
			want:   "Cloudflare",
		},
		{
			name:   "cloudflare challenge body",
			status: http.StatusServiceUnavailable,
			header: http.Header{},
			body:   `<html><div id="cf-turnstile"></div></html>`,
			want:   "Cloudflare",
		},
		{
			name:   "akamai block page",
			status: http.StatusForbidden,
			header: http.Header{},
			body:   "Access Denied. Reference #18.1234",
			want:   "Akamai",
		},
		{
			name:   "datadome header",
			status: http.StatusForbidden,
			header: http.Header{"X-Datadome": []string{"protected"}},
			want:   "DataDome",
		},
		{
			name:   "plain 403 is not attributed",
			status: http.StatusForbidden,
			header: http.Header{},
			body:   "forbidden",
			want:   "",
		},
		{
			name:   "success status never matches",
			status: http.StatusOK,
			header: http.Header{"Server": []string{"cloudflare"}},
			body:   "cf-turnstile",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, detected := Detect(tt.status, tt.header, []byte(tt.body))
			if detected != (tt.want != "") {
				t.Fatalf("detected = %v, want %v", detected, tt.want != "")
			}
			if source != tt.want {
				t.Errorf("source = %q, want %q", source, tt.want)
			}
		})
	}
}
