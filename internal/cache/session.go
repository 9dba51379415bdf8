package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonjun/stiky/internal/domain"
)

// Key prefixes. All features share one Redis client; prefixes keep them apart.
const (
	refreshTokenPrefix = "RT:"
	loginCodePrefix    = "LOGIN_CODE:"
	loginCodeRTSuffix  = ":RT"
)

// RefreshTokenKey returns the cache key holding the active refresh token for email.
func RefreshTokenKey(email string) string {
	return refreshTokenPrefix + email
}

// ExchangeKeys returns the access and refresh token keys for a login code.
func ExchangeKeys(code string) (access, refresh string) {
	access = loginCodePrefix + code
	return access, access + loginCodeRTSuffix
}

// SessionStore holds refresh tokens and one-time login exchange codes.
type SessionStore struct {
	store      Store
	refreshTTL time.Duration
	codeTTL    time.Duration
}

// NewSessionStore creates a SessionStore. refreshTTL should equal the refresh
// token lifetime.
func NewSessionStore(store Store, refreshTTL, codeTTL time.Duration) *SessionStore {
	return &SessionStore{store: store, refreshTTL: refreshTTL, codeTTL: codeTTL}
}

// SaveRefreshToken stores token as the single active refresh token for email,
// replacing any previous one.
func (s *SessionStore) SaveRefreshToken(ctx context.Context, email, token string) error {
	if err := s.store.Set(ctx, RefreshTokenKey(email), token, s.refreshTTL); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken replaces presented with next as the active refresh token
// for email in one atomic step. It returns ErrMiss when presented is no longer
// active, so at most one caller can rotate a given token.
func (s *SessionStore) RotateRefreshToken(ctx context.Context, email, presented, next string) error {
	swapped, err := s.store.CompareAndSet(ctx, RefreshTokenKey(email), presented, next, s.refreshTTL)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		return ErrMiss
	}
	return nil
}

// RefreshToken returns the active refresh token for email, or ErrMiss.
func (s *SessionStore) RefreshToken(ctx context.Context, email string) (string, error) {
	tok, err := s.store.Get(ctx, RefreshTokenKey(email))
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return tok, nil
}

// DeleteRefreshToken revokes the active refresh token for email.
func (s *SessionStore) DeleteRefreshToken(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, RefreshTokenKey(email)); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// SaveExchange stores pair under a one-time login code.
func (s *SessionStore) SaveExchange(ctx context.Context, code string, pair *domain.TokenPair) error {
	accessKey, refreshKey := ExchangeKeys(code)
	if err := s.store.Set(ctx, accessKey, pair.AccessToken, s.codeTTL); err != nil {
		return fmt.Errorf("save exchange access token: %w", err)
	}
	if err := s.store.Set(ctx, refreshKey, pair.RefreshToken, s.codeTTL); err != nil {
		return fmt.Errorf("save exchange refresh token: %w", err)
	}
	return nil
}

// RedeemExchange returns the pair stored under code and removes it. Both keys
// are consumed with GETDEL, so a second redemption returns ErrMiss exactly as
// an unknown code does.
func (s *SessionStore) RedeemExchange(ctx context.Context, code string) (*domain.TokenPair, error) {
	accessKey, refreshKey := ExchangeKeys(code)

	access, accessErr := s.store.GetDel(ctx, accessKey)
	refresh, refreshErr := s.store.GetDel(ctx, refreshKey)

	for _, err := range []error{accessErr, refreshErr} {
		if err != nil && !errors.Is(err, ErrMiss) {
			return nil, fmt.Errorf("redeem exchange code: %w", err)
		}
	}
	if accessErr != nil || refreshErr != nil {
		return nil, ErrMiss
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
