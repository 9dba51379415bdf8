package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wonjun/stiky/internal/auth"
	"github.com/wonjun/stiky/internal/cache"
	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/internal/event"
	"github.com/wonjun/stiky/internal/metrics"
	"github.com/wonjun/stiky/internal/repository"
	apperrors "github.com/wonjun/stiky/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements password signup and login, token reissue, login code
// exchange and logout.
type AuthService struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	sessions   *cache.SessionStore
	publisher  event.Publisher
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenManager,
	sessions *cache.SessionStore,
	publisher event.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokens:     tokens,
		sessions:   sessions,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// SignupInput holds the parameters for registering a local account.
type SignupInput struct {
	Email    string
	Password string
	Nickname string
}

// LoginInput holds the parameters for password login.
type LoginInput struct {
	Email    string
	Password string
}

// Signup registers a local account and returns its id.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (int64, error) {
	_, err := s.accounts.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return 0, apperrors.AccountExists(input.Email)
	case !errors.Is(err, apperrors.ErrNotFound):
		return 0, fmt.Errorf("look up account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, apperrors.InvalidInput("password must be at most 72 bytes")
	}
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := &domain.Account{
		Email:        input.Email,
		PasswordHash: string(hash),
		Nickname:     input.Nickname,
		Role:         domain.RoleUser,
		Provider:     domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A concurrent signup that passed the pre-check is caught by the unique
	// constraint and surfaces as ACCOUNT_EXISTS from Create.
	id, err := s.accounts.Create(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	account.ID = id

	if err := s.publisher.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.Int64("account_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.Int64("account_id", id),
		slog.String("provider", domain.ProviderLocal),
	)

	return id, nil
}

// Login checks the password and issues a token pair. An unknown email and a
// wrong password produce the same LOGIN_FAILED error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("look up account: %w", err)
		}
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(input.Password))
		return nil, s.loginFailed(ctx)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, s.loginFailed(ctx)
	}

	pair, err := s.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	metrics.LoginTotal.WithLabelValues("password", metrics.OutcomeSuccess).Inc()
	s.logger.InfoContext(ctx, "account logged in", slog.Int64("account_id", account.ID))

	return pair, nil
}

func (s *AuthService) loginFailed(ctx context.Context) error {
	metrics.LoginTotal.WithLabelValues("password", metrics.OutcomeFailure).Inc()
	s.logger.WarnContext(ctx, "login rejected")
	return apperrors.LoginFailed()
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.bcryptCost)
	})
	return s.dummyHash
}

// Reissue exchanges the active refresh token for a new pair and rotates the
// stored token, so the presented one cannot be used again.
func (s *AuthService) Reissue(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, s.rejectToken(ctx, "missing")
	}

	if _, err := s.tokens.ValidateRefresh(refreshToken); err != nil {
		return nil, s.rejectToken(ctx, auth.InvalidReason(err))
	}

	email, err := s.tokens.ExtractSubject(refreshToken)
	if err != nil {
		return nil, s.rejectToken(ctx, auth.InvalidReason(err))
	}

	stored, err := s.sessions.RefreshToken(ctx, email)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, s.rejectToken(ctx, "revoked")
		}
		return nil, fmt.Errorf("reissue: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return nil, s.rejectToken(ctx, "revoked")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// MEMBER_NOT_FOUND would confirm the email to an unauthenticated caller
			return nil, s.rejectToken(ctx, "member_not_found")
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	pair, err := s.tokens.Issue(account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	// A concurrent reissue with the same token may have rotated it since the
	// check above; only one of them wins the swap.
	if err := s.sessions.RotateRefreshToken(ctx, email, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, s.rejectToken(ctx, "revoked")
		}
		return nil, fmt.Errorf("reissue: %w", err)
	}

	s.logger.InfoContext(ctx, "refresh token rotated", slog.Int64("account_id", account.ID))
	return pair, nil
}

func (s *AuthService) rejectToken(ctx context.Context, reason string) error {
	metrics.TokenRejectedTotal.WithLabelValues(reason).Inc()
	s.logger.WarnContext(ctx, "refresh token rejected", slog.String("reason", reason))
	return apperrors.InvalidToken()
}

// ExchangeCode redeems a one-time login code for the pair stored by the OAuth2
// callback. Unknown, expired and already redeemed codes are indistinguishable.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*domain.TokenPair, error) {
	if code == "" {
		metrics.ExchangeTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, apperrors.InvalidExchangeCode()
	}

	pair, err := s.sessions.RedeemExchange(ctx, code)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			metrics.ExchangeTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
			s.logger.WarnContext(ctx, "login code rejected")
			return nil, apperrors.InvalidExchangeCode()
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	metrics.ExchangeTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return pair, nil
}

// Logout revokes the stored refresh token when the presented one is valid and
// still active. It never fails; the caller clears the cookie regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return
	}
	email := claims.Email()

	stored, err := s.sessions.RefreshToken(ctx, email)
	if err != nil || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return
	}
	if err := s.sessions.DeleteRefreshToken(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh token on logout", slog.String("error", err.Error()))
		return
	}
	s.logger.InfoContext(ctx, "refresh token revoked")
}

// Me returns the account of an authenticated caller.
func (s *AuthService) Me(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.MemberNotFound()
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}
	return account, nil
}

// issue signs a pair for account and stores the refresh token as the single
// active one.
func (s *AuthService) issue(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	return issuePair(ctx, s.tokens, s.sessions, account)
}

func issuePair(ctx context.Context, tokens *auth.TokenManager, sessions *cache.SessionStore, account *domain.Account) (*domain.TokenPair, error) {
	pair, err := tokens.Issue(account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := sessions.SaveRefreshToken(ctx, account.Email, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}
