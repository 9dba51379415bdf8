// Package metrics holds the authentication counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// LoginTotal counts login attempts by method (password, google, kakao, naver).
	LoginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Login attempts by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// TokenRejectedTotal counts rejected tokens by reason (expired, malformed, signature, type, revoked).
	TokenRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_rejected_total",
			Help: "Rejected access and refresh tokens by reason.",
		},
		[]string{"reason"},
	)

	ExchangeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_exchange_total",
			Help: "Login code exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	OAuthCallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_oauth_callback_total",
			Help: "OAuth2 callbacks by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
)
