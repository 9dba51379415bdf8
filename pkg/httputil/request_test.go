package httputil

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheme(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "http://api.stiky.dev/", nil)
	assert.Equal(t, "http", Scheme(plain))
	assert.False(t, IsHTTPS(plain))

	tlsReq := httptest.NewRequest(http.MethodGet, "https://api.stiky.dev/", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	assert.True(t, IsHTTPS(tlsReq))

	forwarded := httptest.NewRequest(http.MethodGet, "http://api.stiky.dev/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	assert.True(t, IsHTTPS(forwarded))
}

func TestHostname(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://API.stiky.dev:8080/x", nil)
	assert.Equal(t, "api.stiky.dev", Hostname(r))

	r = httptest.NewRequest(http.MethodGet, "http://localhost/x", nil)
	assert.Equal(t, "localhost", Hostname(r))
}
