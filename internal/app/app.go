// Package app assembles the service from configuration: storage, redis
// stores, event sinks, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"multisig-registry/config"
	"multisig-registry/internal/adapter/evm"
	httpHandler "multisig-registry/internal/adapter/http/handler"
	"multisig-registry/internal/adapter/relay"
	"multisig-registry/internal/adapter/storage/memory"
	pgStorage "multisig-registry/internal/adapter/storage/postgres"
	redisStorage "multisig-registry/internal/adapter/storage/redis"
	"multisig-registry/internal/core/ports"
	"multisig-registry/internal/service"
	"multisig-registry/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OpenAPIPath is where the API document is read from at startup.
const OpenAPIPath = "docs/api/openapi.yaml"

// App is a fully wired service instance.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	router *gin.Engine

	closers []func()
}

// storage groups the repositories of one storage driver.
type storage struct {
	wallets     ports.WalletRepository
	txns        ports.TransactionRepository
	registry    ports.RegistryRepository
	events      ports.EventRepository
	idempotency ports.IdempotencyRepository
	audit       ports.AuditRepository
	webhooks    ports.WebhookRepository
	transactor  ports.DBTransactor
	health      ports.HealthChecker
	close       func()
}

// New connects to the configured backends and builds the router.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	codec, err := evm.NewGovernanceCodec()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("governance codec: %w", err)
	}

	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	publisher := a.eventBus(store, rdb, sigSvc)
	executor := a.callExecutor(sigSvc)

	indexer := service.NewRegistryIndexer(store.registry)
	walletSvc := service.NewWalletService(
		store.wallets,
		store.txns,
		store.events,
		store.idempotency,
		redisStorage.NewIdempotencyCache(rdb),
		codec,
		indexer,
		executor,
		publisher,
		store.transactor,
		logger.Component(log, "wallet"),
	)
	deriver := evm.NewHandleDeriver(
		common.HexToAddress(cfg.Registry.FactoryAddress),
		common.HexToHash(cfg.Registry.InitCodeHash),
	)
	registrySvc := service.NewRegistryService(
		store.registry,
		walletSvc,
		indexer,
		deriver,
		publisher,
		store.transactor,
		logger.Component(log, "registry"),
	)
	authSvc := service.NewAuthService(
		redisStorage.NewChallengeStore(rdb),
		evm.NewSignerRecoverer(),
		tokenSvc,
		cfg.Auth.ChallengeTTL,
	)

	auditSvc := service.NewAuditService(store.audit, logger.Component(log, "audit"), cfg.Server.AuditQueue)
	a.closers = append(a.closers, auditSvc.Close)

	a.router = httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		RegistrySvc:    registrySvc,
		Codec:          codec,
		TokenSvc:       tokenSvc,
		RateLimitStore: a.rateLimitStore(rdb),
		RateLimits:     cfg.RateLimit.Limits,
		HealthCheckers: []ports.HealthChecker{store.health, redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		OpenAPISpec:    a.loadOpenAPI(),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxPageSize:    cfg.Registry.MaxPageSize,
		Logger:         log,
	})

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, state is lost on exit")
		s := memory.NewStore()
		return &storage{
			wallets:     memory.NewWalletRepo(s),
			txns:        memory.NewTransactionRepo(s),
			registry:    memory.NewRegistryRepo(s),
			events:      memory.NewEventRepo(s),
			idempotency: memory.NewIdempotencyRepo(s),
			audit:       memory.NewAuditRepo(s),
			webhooks:    memory.NewWebhookRepo(s),
			transactor:  memory.NewTransactor(s),
			health:      memory.NewHealthCheck(),
			close:       func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &storage{
		wallets:     pgStorage.NewWalletRepo(pool),
		txns:        pgStorage.NewTransactionRepo(pool),
		registry:    pgStorage.NewRegistryRepo(pool),
		events:      pgStorage.NewEventRepo(pool),
		idempotency: pgStorage.NewIdempotencyRepo(pool),
		audit:       pgStorage.NewAuditRepo(pool),
		webhooks:    pgStorage.NewWebhookRepo(pool),
		transactor:  pgStorage.NewTransactor(pool),
		health:      pgStorage.NewSchemaCheck(pool),
		close:       pool.Close,
	}, nil
}

func (a *App) rateLimitStore(rdb *goredis.Client) *redisStorage.RateLimitStore {
	if !a.cfg.RateLimit.Enabled {
		a.log.Warn().Msg("rate limiting disabled")
		return nil
	}
	return redisStorage.NewRateLimitStore(rdb)
}

// eventBus always persists events; redis fan-out and webhook delivery are
// added when configured.
func (a *App) eventBus(store *storage, rdb *goredis.Client, sigSvc ports.SignatureService) *service.EventBus {
	sinks := []ports.EventSink{service.NewEventLogSink(store.events)}

	if ch := a.cfg.Events.RedisChannel; ch != "" {
		sinks = append(sinks, redisStorage.NewEventChannel(rdb, ch))
	}
	if url := a.cfg.Events.WebhookURL; url != "" {
		hook := service.NewWebhookSink(
			url,
			a.cfg.Events.WebhookSecret,
			store.webhooks,
			sigSvc,
			&http.Client{Timeout: 10 * time.Second},
			logger.Component(a.log, "webhook"),
		)
		sinks = append(sinks, hook)
		// runs before the storage closer
		a.closers = append(a.closers, hook.Close)
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	a.log.Info().Strs("sinks", names).Msg("event sinks configured")

	return service.NewEventBus(logger.Component(a.log, "events"), sinks...)
}

func (a *App) callExecutor(sigSvc ports.SignatureService) ports.CallExecutor {
	cfg := a.cfg.Executor
	if cfg.RelayURL == "" {
		a.log.Warn().Msg("no relay configured, calls are logged and reported successful")
		return relay.NewLoggingExecutor(logger.Component(a.log, "executor"))
	}
	return relay.NewExecutor(
		cfg.RelayURL,
		cfg.RelaySecret,
		&http.Client{Timeout: cfg.Timeout},
		sigSvc,
		logger.Component(a.log, "executor"),
	)
}

func (a *App) loadOpenAPI() []byte {
	spec, err := os.ReadFile(OpenAPIPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("OpenAPI document not found, /docs disabled")
		return nil
	}
	return spec
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	a.log.Info().Msg("Server exited")
	return nil
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
