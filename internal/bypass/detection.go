// Package bypass recognizes bot-protection block pages in fetch responses.
// Telling "we were challenged" apart from "the site changed its markup" is
// what makes scrape failures diagnosable.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Detector inspects a response and reports whether a bot protection vendor
// blocked or challenged the request.
type Detector func(status int, header http.Header, body []byte) (detected bool, source string)

// DefaultDetectors returns the standard list of detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
	}
}

// Detect runs the response through the detectors in order and returns the
// first vendor that matches.
func Detect(status int, header http.Header, body []byte) (string, bool) {
	for _, d := range DefaultDetectors() {
		if detected, source := d(status, header, body); detected {
			return source, true
		}
	}
	return "", false
}

func detectCloudflare(status int, header http.Header, body []byte) (bool, string) {
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(body, []byte("cf-browser-verification")) ||
		bytes.Contains(body, []byte("cf-turnstile")) ||
		bytes.Contains(body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(status int, header http.Header, body []byte) (bool, string) {
	if status != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header.Get("Server")), "akamai") {
		return true, "Akamai"
	}
	// Akamai usually serves a generic "Reference #" block page.
	if bytes.Contains(body, []byte("Reference #")) && bytes.Contains(body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(status int, header http.Header, body []byte) (bool, string) {
	if status != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header.Get("Server")), "datadome") ||
		header.Get("X-DataDome") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(body, []byte("geo.captcha-delivery.com")) {
		return true, "DataDome"
	}
	return false, ""
}
