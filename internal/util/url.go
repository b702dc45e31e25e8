package util

import (
	"net/url"
	"strings"
)

// IsWebURL reports whether s parses as an absolute http(s) URL with a host.
// Listing sites occasionally emit placeholder text or relative fragments in
// image attributes; those must not end up in outbound embeds.
func IsWebURL(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// AbsoluteURL resolves href against base. Relative hrefs are common on
// listing pages; absolute ones pass through unchanged. Malformed input
// falls back to the raw href.
func AbsoluteURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
