package oauth

import (
	"strings"

	"golang.org/x/oauth2"
)

// Provider is one OAuth2 client registration.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// Credentials are the client id and secret issued by a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

type endpoint struct {
	authURL     string
	tokenURL    string
	userInfoURL string
	scopes      []string
	authStyle   oauth2.AuthStyle
}

var endpoints = map[string]endpoint{
	ProviderGoogle: {
		authURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:    "https://oauth2.googleapis.com/token",
		userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		scopes:      []string{"openid", "email", "profile"},
		authStyle:   oauth2.AuthStyleInParams,
	},
	ProviderKakao: {
		authURL:     "https://kauth.kakao.com/oauth/authorize",
		tokenURL:    "https://kauth.kakao.com/oauth/token",
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
		scopes:      []string{"profile_nickname", "account_email"},
		authStyle:   oauth2.AuthStyleInParams,
	},
	ProviderNaver: {
		authURL:     "https://nid.naver.com/oauth2.0/authorize",
		tokenURL:    "https://nid.naver.com/oauth2.0/token",
		userInfoURL: "https://openapi.naver.com/v1/nid/me",
		authStyle:   oauth2.AuthStyleInParams,
	},
}

// CallbackPath returns the path providers redirect back to.
func CallbackPath(provider string) string {
	return "/login/oauth2/code/" + provider
}

// NewProviders builds registrations for every known provider that has a
// client id. baseURL is the externally visible origin of this service.
func NewProviders(baseURL string, creds map[string]Credentials) map[string]*Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	providers := make(map[string]*Provider, len(creds))
	for name, c := range creds {
		ep, ok := endpoints[name]
		if !ok || c.ClientID == "" {
			continue
		}
		providers[name] = &Provider{
			Name: name,
			Config: &oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:   ep.authURL,
					TokenURL:  ep.tokenURL,
					AuthStyle: ep.authStyle,
				},
				RedirectURL: baseURL + CallbackPath(name),
				Scopes:      ep.scopes,
			},
			UserInfoURL: ep.userInfoURL,
		}
	}
	return providers
}
