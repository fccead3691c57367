package middleware

import (
	"net"
	"net/http"
	"strings"
)

const fallbackClientID = "127.0.0.1"

// ClientIdentifier names the caller for rate limiting: the first address in
// X-Forwarded-For, then X-Real-IP, then a fixed loopback address. Callers
// without proxy headers all share the fallback bucket.
func ClientIdentifier(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return fallbackClientID
}

func parseIP(value string) string {
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil {
		return ""
	}
	return ip.String()
}
