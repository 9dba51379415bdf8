package oauth

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/wonjun/stiky/pkg/errors"
)

// Supported provider names.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
	ProviderNaver  = "naver"
)

// Identity is a verified third-party profile: the provider name, the raw
// user-info attributes and the provider's stable subject id.
type Identity struct {
	Provider   string
	Attributes map[string]any
	SubjectID  string
}

// Profile is the normalized part of an Identity used for reconciliation.
type Profile struct {
	Email    string
	Nickname string
}

// Extractor reads a provider-specific attribute shape.
type Extractor interface {
	// Profile returns the normalized email and nickname. A missing email is
	// reported as PROVIDER_EMAIL_MISSING.
	Profile(attrs map[string]any) (Profile, error)
	// Subject returns the provider's subject id, or "" when absent.
	Subject(attrs map[string]any) string
}

// ExtractorFor returns the extractor for provider. Unknown providers get an
// extractor that always fails with UNSUPPORTED_PROVIDER.
func ExtractorFor(provider string) Extractor {
	switch provider {
	case ProviderGoogle:
		return googleExtractor{}
	case ProviderKakao:
		return kakaoExtractor{}
	case ProviderNaver:
		return naverExtractor{}
	default:
		return unknownExtractor{provider: provider}
	}
}

// ExtractProfile dispatches on id.Provider.
func ExtractProfile(id Identity) (Profile, error) {
	return ExtractorFor(id.Provider).Profile(id.Attributes)
}

// google: {"sub": "...", "email": "...", "name": "..."}
type googleExtractor struct{}

func (googleExtractor) Profile(attrs map[string]any) (Profile, error) {
	return newProfile(ProviderGoogle, stringAt(attrs, "email"), stringAt(attrs, "name"))
}

func (googleExtractor) Subject(attrs map[string]any) string {
	return stringAt(attrs, "sub")
}

// kakao: {"id": 123, "kakao_account": {"email": "...", "profile": {"nickname": "..."}}, "properties": {...}}
type kakaoExtractor struct{}

func (kakaoExtractor) Profile(attrs map[string]any) (Profile, error) {
	nickname := stringAt(attrs, "kakao_account", "profile", "nickname")
	if nickname == "" {
		nickname = stringAt(attrs, "properties", "nickname")
	}
	return newProfile(ProviderKakao, stringAt(attrs, "kakao_account", "email"), nickname)
}

func (kakaoExtractor) Subject(attrs map[string]any) string {
	return stringAt(attrs, "id")
}

// naver: {"resultcode": "00", "response": {"id": "...", "email": "...", "nickname": "...", "name": "..."}}
type naverExtractor struct{}

func (naverExtractor) Profile(attrs map[string]any) (Profile, error) {
	nickname := stringAt(attrs, "response", "nickname")
	if nickname == "" {
		nickname = stringAt(attrs, "response", "name")
	}
	return newProfile(ProviderNaver, stringAt(attrs, "response", "email"), nickname)
}

func (naverExtractor) Subject(attrs map[string]any) string {
	return stringAt(attrs, "response", "id")
}

type unknownExtractor struct {
	provider string
}

func (e unknownExtractor) Profile(map[string]any) (Profile, error) {
	return Profile{}, apperrors.UnsupportedProvider(e.provider)
}

func (unknownExtractor) Subject(map[string]any) string { return "" }

func newProfile(provider, email, nickname string) (Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Profile{}, apperrors.ProviderEmailMissing(provider)
	}
	return Profile{Email: email, Nickname: strings.TrimSpace(nickname)}, nil
}

// stringAt walks nested objects along path and renders the leaf as a string.
// Numeric ids (kakao) are kept exact when attrs were decoded with UseNumber.
func stringAt(attrs map[string]any, path ...string) string {
	var cur any = attrs
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}

	switch v := cur.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int64, int:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
