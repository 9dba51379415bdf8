package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wonjun/stiky/internal/auth"
	"github.com/wonjun/stiky/internal/cache"
	"github.com/wonjun/stiky/internal/config"
	"github.com/wonjun/stiky/internal/event"
	handler "github.com/wonjun/stiky/internal/handler/http"
	"github.com/wonjun/stiky/internal/oauth"
	"github.com/wonjun/stiky/internal/repository/postgres"
	"github.com/wonjun/stiky/internal/service"
	"github.com/wonjun/stiky/migrations"
	"github.com/wonjun/stiky/pkg/database"
	"github.com/wonjun/stiky/pkg/health"
	"github.com/wonjun/stiky/pkg/httpclient"
	pkgkafka "github.com/wonjun/stiky/pkg/kafka"
	"github.com/wonjun/stiky/pkg/middleware"
	"github.com/wonjun/stiky/pkg/tracing"
)

// App wires together all dependencies and runs the stiky server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, cfg.ServiceName)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Kafka is optional; without it domain events are dropped.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher = event.NoopPublisher{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	store := cache.NewRedisStore(rdb)
	sessions := cache.NewSessionStore(store, cfg.JWTRefreshExpiry, cfg.ExchangeCodeTTL)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	accounts := postgres.NewAccountRepository(pool)
	users := postgres.NewUserRepository(pool)

	authService := service.NewAuthService(accounts, tokens, sessions, publisher, logger)
	oauthService := service.NewOAuthService(accounts, tokens, sessions, publisher, logger)
	userService := service.NewUserService(users, logger)

	providers := oauth.NewProviders(cfg.OAuthBaseURL, map[string]oauth.Credentials{
		oauth.ProviderGoogle: {ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret},
		oauth.ProviderKakao:  {ClientID: cfg.KakaoClientID, ClientSecret: cfg.KakaoClientSecret},
		oauth.ProviderNaver:  {ClientID: cfg.NaverClientID, ClientSecret: cfg.NaverClientSecret},
	})
	oauthClient := oauth.NewClient(providers, httpclient.New(httpclient.DefaultConfig()), logger)
	logger.Info("oauth2 providers registered", slog.Any("providers", oauthClient.Providers()))

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", pool.Ping)
	healthHandler.RegisterCritical("redis", store.Ping)
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	cookie := handler.RefreshCookieConfig{
		Secure:   cfg.RefreshCookieSecure,
		SameSite: handler.ParseSameSite(cfg.RefreshCookieSameSite),
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.JWTRefreshExpiry,
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(
		handler.RouterConfig{
			ServiceName: cfg.ServiceName,
			CORS:        cors,
			PprofCIDRs:  cfg.PprofCIDRs,
		},
		handler.Handlers{
			Auth:   handler.NewAuthHandler(authService, cookie, logger),
			OAuth:  handler.NewOAuthHandler(oauthClient, requestRepository(cfg, store), oauthService, cfg.ClientURL, logger),
			User:   handler.NewUserHandler(userService, logger),
			Health: healthHandler,
		},
		handler.AccessTokenValidator(tokens),
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          rdb,
		producer:       producer,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// requestRepository selects where pending OAuth2 requests live between the
// redirect and the callback.
func requestRepository(cfg *config.Config, store cache.Store) oauth.RequestRepository {
	if cfg.OAuth2RequestStore == "redis" {
		return oauth.NewCacheRequestRepository(store, cfg.AuthRequestTTL)
	}
	return oauth.NewCookieRequestRepository(cfg.JWTSecret, cfg.AuthRequestTTL, cfg.CookieDomain)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
