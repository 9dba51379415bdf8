package http

import (
	"net/http"
	"strings"
	"time"
)

// RefreshCookieName is the cookie that carries the refresh token.
const RefreshCookieName = "refresh_token"

// RefreshCookieConfig holds the attributes of the refresh token cookie.
type RefreshCookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
	MaxAge   time.Duration
}

// ParseSameSite maps "strict", "lax" and "none" to http.SameSite. Anything
// else falls back to strict.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (c RefreshCookieConfig) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c RefreshCookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func refreshTokenFrom(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
