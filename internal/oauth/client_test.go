package oauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/wonjun/stiky/pkg/httpclient"
)

// fakeProvider serves the token and user-info endpoints of one provider.
func fakeProvider(t *testing.T, userInfo string, userInfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-at",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		_, _ = io.WriteString(w, userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, provider string, srv *httptest.Server) *Client {
	t.Helper()
	p := &Provider{
		Name: provider,
		Config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "http://localhost:8080" + CallbackPath(provider),
		},
		UserInfoURL: srv.URL + "/userinfo",
	}
	base := httpclient.New(httpclient.Config{Timeout: 2 * time.Second})
	return NewClient(map[string]*Provider{provider: p}, base, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewProviders_OnlyConfigured(t *testing.T) {
	providers := NewProviders("https://api.stiky.dev/", map[string]Credentials{
		ProviderGoogle: {ClientID: "g", ClientSecret: "gs"},
		ProviderKakao:  {},
		"github":       {ClientID: "x"},
	})

	require.Len(t, providers, 1)
	g := providers[ProviderGoogle]
	assert.Equal(t, "https://api.stiky.dev/login/oauth2/code/google", g.Config.RedirectURL)
	assert.Contains(t, g.Config.Scopes, "email")
}

func TestClient_AuthorizationURL(t *testing.T) {
	srv := fakeProvider(t, `{}`, http.StatusOK)
	c := newTestClient(t, ProviderGoogle, srv)

	req, err := c.NewRequest(ProviderGoogle)
	require.NoError(t, err)
	assert.NotEmpty(t, req.State)
	assert.NotEmpty(t, req.CodeVerifier)

	raw, err := c.AuthorizationURL(req)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, req.Nonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(req.CodeVerifier), q.Get("code_challenge"))
	assert.Equal(t, req.RedirectURI, q.Get("redirect_uri"))

	_, err = c.NewRequest("github")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestClient_FetchIdentity_Kakao(t *testing.T) {
	srv := fakeProvider(t, `{"id":3141592653589,"kakao_account":{"email":"k@x.com"}}`, http.StatusOK)
	c := newTestClient(t, ProviderKakao, srv)

	id, err := c.FetchIdentity(context.Background(), ProviderKakao, "good-code", "verifier")
	require.NoError(t, err)
	assert.Equal(t, ProviderKakao, id.Provider)
	assert.Equal(t, "3141592653589", id.SubjectID)

	profile, err := ExtractProfile(*id)
	require.NoError(t, err)
	assert.Equal(t, "k@x.com", profile.Email)
}

func TestClient_FetchIdentity_BadCode(t *testing.T) {
	srv := fakeProvider(t, `{}`, http.StatusOK)
	c := newTestClient(t, ProviderGoogle, srv)

	_, err := c.FetchIdentity(context.Background(), ProviderGoogle, "bad-code", "verifier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange google authorization code")
}

func TestClient_FetchIdentity_UserInfoRejected(t *testing.T) {
	srv := fakeProvider(t, `{"error":"invalid_token","error_description":"expired"}`, http.StatusUnauthorized)
	c := newTestClient(t, ProviderGoogle, srv)

	_, err := c.FetchIdentity(context.Background(), ProviderGoogle, "good-code", "verifier")

	var rerr *httpclient.ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "invalid_token", rerr.Code)
}

func TestClient_FetchIdentity_NoSubject(t *testing.T) {
	srv := fakeProvider(t, `{"email":"a@x.com"}`, http.StatusOK)
	c := newTestClient(t, ProviderGoogle, srv)

	_, err := c.FetchIdentity(context.Background(), ProviderGoogle, "good-code", "verifier")
	assert.Error(t, err)
}
