package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/wonjun/stiky/internal/domain"
	"github.com/wonjun/stiky/internal/metrics"
	"github.com/wonjun/stiky/internal/oauth"
	apperrors "github.com/wonjun/stiky/pkg/errors"
	"github.com/wonjun/stiky/pkg/httputil"
)

// Error codes carried by the client callback redirect besides AppError codes.
const (
	callbackErrAccessDenied   = "ACCESS_DENIED"
	callbackErrInvalidRequest = "INVALID_REQUEST"
	callbackErrProvider       = "PROVIDER_ERROR"
)

// IdentityClient runs the provider side of the OAuth2 handshake.
type IdentityClient interface {
	NewRequest(provider string) (*oauth.AuthorizationRequest, error)
	AuthorizationURL(req *oauth.AuthorizationRequest) (string, error)
	FetchIdentity(ctx context.Context, provider, code, verifier string) (*oauth.Identity, error)
}

// Reconciler maps provider identities to accounts and mints login codes.
type Reconciler interface {
	Reconcile(ctx context.Context, id oauth.Identity) (*domain.Account, error)
	CompleteLogin(ctx context.Context, account *domain.Account) (string, error)
}

// OAuthHandler handles the authorization redirect and the provider callback.
type OAuthHandler struct {
	client      IdentityClient
	requests    oauth.RequestRepository
	reconciler  Reconciler
	callbackURL string
	logger      *slog.Logger
}

// NewOAuthHandler creates a new OAuth2 HTTP handler. clientURL is the web
// client origin; the browser lands on {clientURL}/login/callback.
func NewOAuthHandler(
	client IdentityClient,
	requests oauth.RequestRepository,
	reconciler Reconciler,
	clientURL string,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		client:      client,
		requests:    requests,
		reconciler:  reconciler,
		callbackURL: clientURL + "/login/callback",
		logger:      logger,
	}
}

// Authorize handles GET /oauth2/authorization/{provider}
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	req, err := h.client.NewRequest(provider)
	if err != nil {
		if errors.Is(err, oauth.ErrUnknownProvider) {
			httputil.WriteError(w, r, apperrors.UnsupportedProvider(provider), h.logger)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	target, err := h.client.AuthorizationURL(req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.requests.Save(w, r, req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles GET /login/oauth2/code/{provider}
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	// consumed on every path, success or failure
	req, err := h.requests.Remove(w, r)
	if err != nil {
		h.fail(w, r, provider, callbackErrInvalidRequest, err)
		return
	}

	if e := q.Get("error"); e != "" {
		h.fail(w, r, provider, callbackErrAccessDenied, errors.New("provider returned error: "+e))
		return
	}
	if req == nil || req.Provider != provider || req.State == "" || req.State != q.Get(oauth.StateParam) {
		h.fail(w, r, provider, callbackErrInvalidRequest, errors.New("authorization request missing or state mismatch"))
		return
	}

	identity, err := h.client.FetchIdentity(ctx, provider, q.Get("code"), req.CodeVerifier)
	if err != nil {
		h.fail(w, r, provider, callbackErrProvider, err)
		return
	}

	account, err := h.reconciler.Reconcile(ctx, *identity)
	if err != nil {
		h.fail(w, r, provider, errorCode(err), err)
		return
	}

	code, err := h.reconciler.CompleteLogin(ctx, account)
	if err != nil {
		h.fail(w, r, provider, errorCode(err), err)
		return
	}

	metrics.OAuthCallbackTotal.WithLabelValues(providerLabel(provider), metrics.OutcomeSuccess).Inc()
	metrics.LoginTotal.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
	h.logger.InfoContext(ctx, "oauth2 login completed",
		slog.String("provider", provider),
		slog.Int64("account_id", account.ID),
	)

	http.Redirect(w, r, h.redirect("code", code), http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, provider, code string, err error) {
	metrics.OAuthCallbackTotal.WithLabelValues(providerLabel(provider), metrics.OutcomeFailure).Inc()

	level := slog.LevelWarn
	if code == apperrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "oauth2 login failed",
		slog.String("provider", providerLabel(provider)),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)

	http.Redirect(w, r, h.redirect("error", code), http.StatusFound)
}

func (h *OAuthHandler) redirect(key, value string) string {
	return h.callbackURL + "?" + url.Values{key: {value}}.Encode()
}

func errorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return apperrors.CodeInternal
}

// providerLabel keeps arbitrary path values out of metric labels.
func providerLabel(provider string) string {
	switch provider {
	case oauth.ProviderGoogle, oauth.ProviderKakao, oauth.ProviderNaver:
		return provider
	default:
		return "unknown"
	}
}
