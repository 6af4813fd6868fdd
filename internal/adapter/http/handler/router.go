package handler

import (
	"multisig-registry/internal/adapter/http/middleware"
	redisStore "multisig-registry/internal/adapter/storage/redis"
	"multisig-registry/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	RegistrySvc    ports.RegistryService
	Codec          ports.GovernanceCodec
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimits     map[string]int64           // per-minute overrides by group
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	OpenAPISpec    []byte             // nil = /docs disabled
	MaxBodyBytes   int64
	MaxPageSize    int
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if docs := NewDocsHandler(deps.OpenAPISpec); docs != nil {
		r.GET("/docs", docs.UI)
		r.GET("/docs/openapi.yaml", docs.Spec)
	}

	rules := middleware.RateLimitRules(deps.RateLimits)
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/challenge", rl("auth_challenge"), authHandler.Challenge)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	maxPage := deps.MaxPageSize
	if maxPage <= 0 {
		maxPage = defaultMaxLimit
	}
	registryHandler := NewRegistryHandler(deps.RegistrySvc, maxPage)
	walletHandler := NewWalletHandler(deps.WalletSvc, deps.Codec, maxPage)

	reads := rl("reads")
	writes := rl("wallet_writes")

	v1.POST("/wallets", jwtAuth, rl("wallets_create"), registryHandler.Create)

	wallet := v1.Group("/wallets/:handle")
	{
		wallet.GET("", reads, registryHandler.GetInfo)
		wallet.GET("/state", reads, walletHandler.GetState)
		wallet.GET("/members", reads, walletHandler.GetMembers)
		wallet.GET("/events", reads, walletHandler.ListEvents)
		wallet.GET("/transactions", reads, walletHandler.ListTransactions)
		wallet.GET("/transactions/:id", reads, walletHandler.GetTransaction)
		wallet.GET("/transactions/:id/confirmations", reads, walletHandler.GetConfirmations)

		wallet.POST("/transactions", jwtAuth, writes, walletHandler.Submit)
		wallet.POST("/transactions/:id/confirm", jwtAuth, writes, walletHandler.Confirm)
		wallet.POST("/transactions/:id/revoke", jwtAuth, writes, walletHandler.Revoke)
		wallet.POST("/transactions/:id/execute", jwtAuth, writes, walletHandler.Execute)
		wallet.POST("/governance", jwtAuth, writes, walletHandler.SubmitGovernance)
	}

	v1.POST("/governance/encode", reads, walletHandler.EncodeGovernance)

	members := v1.Group("/members/:address")
	{
		members.GET("/wallets", reads, registryHandler.WalletsForMember)
		members.GET("/wallets/count", reads, registryHandler.CountForMember)
	}

	return r
}
