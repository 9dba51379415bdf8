package http

import (
	"log/slog"
	"net/http"

	"github.com/wonjun/stiky/internal/auth"
	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/internal/metrics"
	"github.com/wonjun/stiky/internal/service"
	apperrors "github.com/wonjun/stiky/pkg/errors"
	"github.com/wonjun/stiky/pkg/httputil"
	"github.com/wonjun/stiky/pkg/middleware"
	"github.com/wonjun/stiky/pkg/validator"
)

// AuthHandler handles the password login, token and member endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookie  RefreshCookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookie RefreshCookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		cookie:  cookie,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SignupRequest is the JSON request body for registering a local account.
type SignupRequest struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=64,maxbytes=72"`
	RepeatPassword string `json:"repeatPassword" validate:"required,eqfield=Password"`
	Nickname       string `json:"nickname" validate:"required,max=20"`
}

// LoginRequest is the JSON request body for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenRequest is the JSON request body for redeeming a login code.
type TokenRequest struct {
	Code string `json:"code"`
}

// --- Responses ---

type idResponse struct {
	ID int64 `json:"id"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// MemberResponse is the account view returned to its owner.
type MemberResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Nickname   string `json:"nickname"`
	Role       string `json:"role"`
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId,omitempty"`
}

func newMemberResponse(a *domain.Account) MemberResponse {
	return MemberResponse{
		ID:         a.ID,
		Email:      a.Email,
		Nickname:   a.Nickname,
		Role:       a.Role,
		Provider:   a.Provider,
		ProviderID: a.ProviderID,
	}
}

// --- Handlers ---

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req SignupRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	id, err := h.service.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	pair, err := h.service.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writePair(w, pair)
}

// Reissue handles POST /api/auth/reissue
func (h *AuthHandler) Reissue(w http.ResponseWriter, r *http.Request) {
	pair, err := h.service.Reissue(r.Context(), refreshTokenFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writePair(w, pair)
}

// Token handles POST /api/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<12)
	var req TokenRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	pair, err := h.service.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.writePair(w, pair)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), refreshTokenFrom(r))
	h.cookie.clear(w)
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// Me handles GET /api/members/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	email := middleware.SubjectFromContext(r.Context())
	if email == "" {
		httputil.WriteError(w, r, apperrors.InvalidToken(), h.logger)
		return
	}

	account, err := h.service.Me(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newMemberResponse(account))
}

// writePair sets the refresh cookie and writes only the access token.
func (h *AuthHandler) writePair(w http.ResponseWriter, pair *domain.TokenPair) {
	h.cookie.set(w, pair.RefreshToken)
	httputil.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// AccessTokenValidator adapts the token manager to the bearer middleware.
// Only access tokens are accepted.
func AccessTokenValidator(tokens *auth.TokenManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			metrics.TokenRejectedTotal.WithLabelValues(auth.InvalidReason(err)).Inc()
			return nil, err
		}
		return &middleware.Claims{Subject: claims.Email(), Role: claims.Role}, nil
	}
}
