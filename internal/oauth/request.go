package oauth

import (
	"net/http"
	"time"
)

// AuthorizationRequest is the pending OAuth2 request kept across the redirect
// to the provider and back.
type AuthorizationRequest struct {
	Provider           string    `json:"provider"`
	State              string    `json:"state"`
	Nonce              string    `json:"nonce"`
	RedirectURI        string    `json:"redirectUri"`
	CodeVerifier       string    `json:"codeVerifier"`
	RedirectAfterLogin string    `json:"redirectAfterLogin,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// RequestRepository persists an AuthorizationRequest between the authorization
// redirect and the callback. A missing request reads as (nil, nil).
type RequestRepository interface {
	// Save stores req. A nil req clears any stored request.
	Save(w http.ResponseWriter, r *http.Request, req *AuthorizationRequest) error
	// Load returns the stored request without removing it.
	Load(r *http.Request) (*AuthorizationRequest, error)
	// Remove returns the stored request and deletes it, so it is consumed once.
	Remove(w http.ResponseWriter, r *http.Request) (*AuthorizationRequest, error)
}

// Query and cookie names shared by both repositories.
const (
	StateParam            = "state"
	RedirectURIParam      = "redirect_uri"
	AuthRequestCookieName = "oauth2_auth_request"
	RedirectURICookieName = "redirect_uri"
	defaultAuthRequestTTL = 180 * time.Second
)
