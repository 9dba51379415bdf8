package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wonjun/stiky/internal/domain"
)

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Validation failures. Every error returned by ValidateAccess and
// ValidateRefresh wraps exactly one of these.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenType      = errors.New("unexpected token type")
)

// Claims represents the JWT claims shared by access and refresh tokens.
type Claims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Email returns the subject of the token.
func (c *Claims) Email() string {
	return c.Subject
}

// TokenManager issues and validates HS256 tokens. It holds no mutable state.
type TokenManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewTokenManager creates a token manager with the given secret and expiry durations.
func NewTokenManager(secret, issuer string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// AccessExpiry returns the access token lifetime.
func (m *TokenManager) AccessExpiry() time.Duration { return m.accessExpiry }

// RefreshExpiry returns the refresh token lifetime.
func (m *TokenManager) RefreshExpiry() time.Duration { return m.refreshExpiry }

// Issue signs a fresh access and refresh token for the subject. Every token
// carries a unique jti, so two pairs issued in the same second still differ.
func (m *TokenManager) Issue(email, role string) (*domain.TokenPair, error) {
	now := m.now().UTC()

	access, err := m.sign(email, role, TypeAccess, now, m.accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(email, role, TypeRefresh, now, m.refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(email, role, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateAccess verifies an access token and returns its claims.
func (m *TokenManager) ValidateAccess(token string) (*Claims, error) {
	return m.validate(token, TypeAccess)
}

// ValidateRefresh verifies a refresh token and returns its claims.
func (m *TokenManager) ValidateRefresh(token string) (*Claims, error) {
	return m.validate(token, TypeRefresh)
}

func (m *TokenManager) validate(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", typ, classify(err))
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("parse %s token: %w", typ, ErrTokenMalformed)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("want %s token, got %q: %w", typ, claims.Type, ErrTokenType)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}

// ExtractSubject reads the sub claim without verifying the signature. Only
// call it on a token that has already been validated.
func (m *TokenManager) ExtractSubject(tokenString string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("extract subject: %w", ErrTokenMalformed)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("extract subject: %w", ErrTokenMalformed)
	}
	return claims.Subject, nil
}

// InvalidReason returns a short label for a validation error, for metrics and logs.
func InvalidReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "signature"
	case errors.Is(err, ErrTokenType):
		return "type"
	default:
		return "malformed"
	}
}
