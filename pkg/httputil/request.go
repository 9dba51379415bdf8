package httputil

import (
	"net"
	"net/http"
	"strings"
)

// Scheme returns "https" when the request arrived over TLS or was forwarded
// as HTTPS by a proxy, otherwise "http".
func Scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return "http"
}

// IsHTTPS reports whether Scheme(r) is "https".
func IsHTTPS(r *http.Request) bool {
	return Scheme(r) == "https"
}

// Hostname returns the request host without a port.
func Hostname(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}
