package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	apperrors "github.com/wonjun/stiky/pkg/errors"
	"github.com/wonjun/stiky/pkg/httpclient"
)

// ErrUnknownProvider is returned for a provider with no registration.
var ErrUnknownProvider = errors.New("oauth provider not registered")

// Client performs the authorization-code handshake with registered providers.
// Each provider gets its own circuit breaker.
type Client struct {
	providers map[string]*Provider
	breakers  map[string]*httpclient.CircuitBreakerClient
	now       func() time.Time
}

// NewClient creates a handshake client for providers, sending every outbound
// call through base.
func NewClient(providers map[string]*Provider, base *httpclient.Client, logger *slog.Logger) *Client {
	breakers := make(map[string]*httpclient.CircuitBreakerClient, len(providers))
	for name := range providers {
		breakers[name] = httpclient.NewCircuitBreakerClient(base,
			httpclient.DefaultCircuitBreakerConfig("oauth-"+name), logger)
	}
	return &Client{providers: providers, breakers: breakers, now: time.Now}
}

// Providers returns the registered provider names.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	return names
}

// NewRequest starts an authorization request for provider with fresh state,
// nonce and PKCE verifier.
func (c *Client) NewRequest(provider string) (*AuthorizationRequest, error) {
	p, ok := c.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return &AuthorizationRequest{
		Provider:     provider,
		State:        uuid.NewString(),
		Nonce:        uuid.NewString(),
		RedirectURI:  p.Config.RedirectURL,
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    c.now().UTC(),
	}, nil
}

// AuthorizationURL returns the provider URL the browser is redirected to.
func (c *Client) AuthorizationURL(req *AuthorizationRequest) (string, error) {
	p, ok := c.providers[req.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
	}
	return p.Config.AuthCodeURL(req.State,
		oauth2.S256ChallengeOption(req.CodeVerifier),
		oauth2.SetAuthURLParam("nonce", req.Nonce),
	), nil
}

// FetchIdentity exchanges code for a provider access token and loads the
// user-info attributes.
func (c *Client) FetchIdentity(ctx context.Context, provider, code, verifier string) (*Identity, error) {
	p, ok := c.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	breaker := c.breakers[provider]

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, breaker.HTTPClient())
	tok, err := p.Config.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange %s authorization code: %w", provider, err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok.AccessToken)
	header.Set("Accept", "application/json")

	resp, err := breaker.Get(ctx, p.UserInfoURL, header)
	if err != nil {
		return nil, fmt.Errorf("fetch %s user info: %w", provider, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s user info: %w", provider, httpclient.ParseResponseError(resp, provider))
	}
	defer func() { _ = resp.Body.Close() }()

	attrs := map[string]any{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decode %s user info: %w", provider, err)
	}

	subject := ExtractorFor(provider).Subject(attrs)
	if subject == "" {
		return nil, apperrors.Wrap(apperrors.ErrProviderProfile, provider+" user info has no subject id")
	}

	return &Identity{Provider: provider, Attributes: attrs, SubjectID: subject}, nil
}
