package oauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieSecret = "cookie-secret-cookie-secret-cookie-secret"

func sampleRequest() *AuthorizationRequest {
	return &AuthorizationRequest{
		Provider:     ProviderGoogle,
		State:        "state-1",
		Nonce:        "nonce-1",
		RedirectURI:  "http://localhost:8080/login/oauth2/code/google",
		CodeVerifier: "verifier",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

// replay builds a callback request carrying the cookies set on rec.
func replay(rec *httptest.ResponseRecorder, target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func TestCookieRepository_SaveLoadRemove(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 180*time.Second, "")

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://localhost/oauth2/authorization/google?redirect_uri=/home", nil)
	require.NoError(t, repo.Save(rec, r, sampleRequest()))

	c := findCookie(t, rec, AuthRequestCookieName)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 180, c.MaxAge)
	assert.Equal(t, "/home", findCookie(t, rec, RedirectURICookieName).Value)

	callback := replay(rec, "http://localhost/login/oauth2/code/google?state=state-1")

	loaded, err := repo.Load(callback)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "state-1", loaded.State)
	assert.Equal(t, "verifier", loaded.CodeVerifier)
	assert.Equal(t, "/home", loaded.RedirectAfterLogin)

	removeRec := httptest.NewRecorder()
	removed, err := repo.Remove(removeRec, callback)
	require.NoError(t, err)
	assert.Equal(t, loaded, removed)

	for _, name := range []string{AuthRequestCookieName, RedirectURICookieName} {
		cleared := findCookie(t, removeRec, name)
		assert.Empty(t, cleared.Value)
		assert.Equal(t, -1, cleared.MaxAge, "Max-Age=0 on the wire")
		assert.True(t, cleared.HttpOnly)
	}
}

func TestCookieRepository_SaveNilClears(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 0, "")
	rec := httptest.NewRecorder()

	require.NoError(t, repo.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil))

	assert.Equal(t, -1, findCookie(t, rec, AuthRequestCookieName).MaxAge)
}

func TestCookieRepository_SaveWithoutRedirectExpiresPrevious(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 180*time.Second, "")

	first := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://localhost/oauth2/authorization/google?redirect_uri=/home", nil)
	require.NoError(t, repo.Save(first, r, sampleRequest()))

	second := httptest.NewRecorder()
	r = replay(first, "http://localhost/oauth2/authorization/google")
	require.NoError(t, repo.Save(second, r, sampleRequest()))

	assert.Equal(t, -1, findCookie(t, second, RedirectURICookieName).MaxAge)

	loaded, err := repo.Load(replay(second, "http://localhost/login/oauth2/code/google"))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Empty(t, loaded.RedirectAfterLogin)
}

func TestCookieRepository_LoadAbsent(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 0, "")
	req, err := repo.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestCookieRepository_TamperedReadsAsAbsent(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 0, "")
	rec := httptest.NewRecorder()
	require.NoError(t, repo.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), sampleRequest()))

	value := findCookie(t, rec, AuthRequestCookieName).Value
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AuthRequestCookieName, Value: value[:len(value)-4] + "AAAA"})

	req, err := repo.Load(r)
	assert.NoError(t, err)
	assert.Nil(t, req)

	other := NewCookieRequestRepository("a-different-secret-a-different-secret", 0, "")
	req, err = other.Load(replay(rec, "/"))
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestCookieRepository_ExpiredReadsAsAbsent(t *testing.T) {
	repo := NewCookieRequestRepository(cookieSecret, 180*time.Second, "")
	rec := httptest.NewRecorder()
	require.NoError(t, repo.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), sampleRequest()))

	repo.now = func() time.Time { return time.Now().Add(181 * time.Second) }

	req, err := repo.Load(replay(rec, "/"))
	assert.NoError(t, err)
	assert.Nil(t, req)
}

func TestCookieRepository_SecurityAttributes(t *testing.T) {
	tests := []struct {
		name       string
		domain     string
		target     string
		forwarded  string
		wantDomain string
		wantSecure bool
		wantSame   http.SameSite
	}{
		{"plain http", "", "http://localhost/", "", "", false, http.SameSiteLaxMode},
		{"tls", "", "https://api.example.com/", "", "", true, http.SameSiteNoneMode},
		{"forwarded https", "", "http://api.example.com/", "https", "", true, http.SameSiteNoneMode},
		{"matching domain", ".example.com", "http://api.example.com/", "", "example.com", true, http.SameSiteNoneMode},
		{"exact domain", "example.com", "http://example.com/", "", "example.com", true, http.SameSiteNoneMode},
		{"foreign domain falls through", "example.com", "http://evil-example.com/", "", "", false, http.SameSiteLaxMode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewCookieRequestRepository(cookieSecret, 0, tc.domain)
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-Proto", tc.forwarded)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, repo.Save(rec, r, sampleRequest()))

			c := findCookie(t, rec, AuthRequestCookieName)
			assert.Equal(t, tc.wantDomain, c.Domain)
			assert.Equal(t, tc.wantSecure, c.Secure)
			assert.Equal(t, tc.wantSame, c.SameSite)
		})
	}
}
