package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wonjun/stiky/pkg/httputil"
)

type requestClaims struct {
	Request AuthorizationRequest `json:"req"`
	jwt.RegisteredClaims
}

// CookieRequestRepository keeps the pending request in an HTTP-only cookie as
// a compact HS256 JWT. Tampered or expired cookies read as absent.
type CookieRequestRepository struct {
	secret       []byte
	ttl          time.Duration
	cookieDomain string
	now          func() time.Time
}

// NewCookieRequestRepository creates a cookie-backed repository. cookieDomain
// may be empty; when set and matching the request host, cookies are scoped to it.
func NewCookieRequestRepository(secret string, ttl time.Duration, cookieDomain string) *CookieRequestRepository {
	if ttl <= 0 {
		ttl = defaultAuthRequestTTL
	}
	return &CookieRequestRepository{
		secret:       []byte(secret),
		ttl:          ttl,
		cookieDomain: strings.TrimSpace(cookieDomain),
		now:          time.Now,
	}
}

func (c *CookieRequestRepository) Save(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest) error {
	if req == nil {
		c.clear(w, r)
		return nil
	}

	now := c.now()
	claims := &requestClaims{
		Request: *req,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("sign authorization request: %w", err)
	}

	c.setCookie(w, r, AuthRequestCookieName, value, int(c.ttl.Seconds()))
	// A redirect_uri left by an earlier authorization must not outlive it.
	if after := strings.TrimSpace(r.URL.Query().Get(RedirectURIParam)); after != "" {
		c.setCookie(w, r, RedirectURICookieName, after, int(c.ttl.Seconds()))
	} else {
		c.setCookie(w, r, RedirectURICookieName, "", -1)
	}
	return nil
}

func (c *CookieRequestRepository) Load(r *http.Request) (*AuthorizationRequest, error) {
	cookie, err := r.Cookie(AuthRequestCookieName)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read authorization request cookie: %w", err)
	}

	claims := &requestClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, nil
	}

	req := claims.Request
	if after, err := r.Cookie(RedirectURICookieName); err == nil && after.Value != "" && req.RedirectAfterLogin == "" {
		req.RedirectAfterLogin = after.Value
	}
	return &req, nil
}

func (c *CookieRequestRepository) Remove(w http.ResponseWriter, r *http.Request) (*AuthorizationRequest, error) {
	req, err := c.Load(r)
	c.clear(w, r)
	return req, err
}

func (c *CookieRequestRepository) clear(w http.ResponseWriter, r *http.Request) {
	c.setCookie(w, r, AuthRequestCookieName, "", -1)
	c.setCookie(w, r, RedirectURICookieName, "", -1)
}

// setCookie writes an HTTP-only cookie. maxAge < 0 expires it immediately
// (Max-Age=0 on the wire).
func (c *CookieRequestRepository) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	}
	c.applySecurity(cookie, r)
	http.SetCookie(w, cookie)
}

func (c *CookieRequestRepository) applySecurity(cookie *http.Cookie, r *http.Request) {
	switch {
	case c.domainMatches(r):
		cookie.Domain = c.cookieDomain
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	case httputil.IsHTTPS(r):
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	default:
		cookie.SameSite = http.SameSiteLaxMode
	}
}

func (c *CookieRequestRepository) domainMatches(r *http.Request) bool {
	if c.cookieDomain == "" {
		return false
	}
	domain := strings.ToLower(strings.TrimPrefix(c.cookieDomain, "."))
	host := httputil.Hostname(r)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
