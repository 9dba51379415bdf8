package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonjun/stiky/internal/auth"
	"github.com/wonjun/stiky/internal/cache"
	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/internal/event"
	"github.com/wonjun/stiky/internal/oauth"
	"github.com/wonjun/stiky/internal/repository"
	apperrors "github.com/wonjun/stiky/pkg/errors"
)

const maxNicknameLength = 20

// OAuthService links verified provider identities to local accounts and hands
// out one-time login codes.
type OAuthService struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	sessions   *cache.SessionStore
	publisher  event.Publisher
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
	newCode    func() string
}

// NewOAuthService creates a new OAuth reconciliation service.
func NewOAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenManager,
	sessions *cache.SessionStore,
	publisher event.Publisher,
	logger *slog.Logger,
) *OAuthService {
	return &OAuthService{
		accounts:   accounts,
		tokens:     tokens,
		sessions:   sessions,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
		newCode:    uuid.NewString,
	}
}

// Reconcile maps a provider identity to a local account, linking an existing
// account by email or creating a new one. Only a not-found lookup creates an
// account; any other lookup failure is returned as is.
func (s *OAuthService) Reconcile(ctx context.Context, id oauth.Identity) (*domain.Account, error) {
	profile, err := oauth.ExtractProfile(id)
	if err != nil {
		return nil, err
	}

	existing, err := s.accounts.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return s.link(ctx, existing, id)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("look up account: %w", err)
	}

	account, err := s.create(ctx, id, profile)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		// lost a race with a concurrent first login for the same email
		existing, lookupErr := s.accounts.GetByEmail(ctx, profile.Email)
		if lookupErr != nil {
			return nil, fmt.Errorf("look up account after conflict: %w", lookupErr)
		}
		return s.link(ctx, existing, id)
	}
	return account, err
}

func (s *OAuthService) link(ctx context.Context, existing *domain.Account, id oauth.Identity) (*domain.Account, error) {
	linked := existing.WithSocialLink(id.Provider, id.SubjectID, s.now().UTC())
	if err := s.accounts.UpdateSocialLink(ctx, &linked); err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}

	if err := s.publisher.PublishAccountSocialLinked(ctx, &linked, id.Provider); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.social_linked event",
			slog.Int64("account_id", linked.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account linked",
		slog.Int64("account_id", linked.ID),
		slog.String("provider", id.Provider),
	)
	return &linked, nil
}

func (s *OAuthService) create(ctx context.Context, id oauth.Identity, profile oauth.Profile) (*domain.Account, error) {
	hash, err := s.placeholderPassword()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &domain.Account{
		Email:        profile.Email,
		PasswordHash: hash,
		Nickname:     nicknameFor(profile),
		Role:         domain.RoleUser,
		Provider:     id.Provider,
		ProviderID:   id.SubjectID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	accountID, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.ID = accountID

	if err := s.publisher.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.Int64("account_id", accountID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.Int64("account_id", accountID),
		slog.String("provider", id.Provider),
	)
	return account, nil
}

// placeholderPassword hashes 32 random bytes nobody knows. Social-only
// accounts can never log in with a password.
func (s *OAuthService) placeholderPassword() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword(secret, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash placeholder password: %w", err)
	}
	return string(hash), nil
}

func nicknameFor(p oauth.Profile) string {
	name := p.Nickname
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	if utf8.RuneCountInString(name) > maxNicknameLength {
		name = string([]rune(name)[:maxNicknameLength])
	}
	return name
}

// CompleteLogin issues a pair for account, stores the refresh token and
// returns a one-time code the browser can redeem for the pair. The tokens
// themselves never appear in the redirect.
func (s *OAuthService) CompleteLogin(ctx context.Context, account *domain.Account) (string, error) {
	pair, err := issuePair(ctx, s.tokens, s.sessions, account)
	if err != nil {
		return "", err
	}

	code := s.newCode()
	if err := s.sessions.SaveExchange(ctx, code, pair); err != nil {
		return "", fmt.Errorf("store login code: %w", err)
	}
	return code, nil
}
