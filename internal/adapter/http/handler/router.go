package handler

import (
	"wallet-ledger-service/internal/adapter/http/middleware"
	redisStore "wallet-ledger-service/internal/adapter/storage/redis"
	"wallet-ledger-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check verifying PostgreSQL and Redis connectivity
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
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

	walletHandler := NewWalletHandler(deps.WalletSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets_create"), walletHandler.CreateWallet)
		wallets.GET("/:id/balance", rl("queries"), walletHandler.GetBalance)
		wallets.GET("/:id/balance/history", rl("queries"), walletHandler.GetHistoricalBalance)
		wallets.GET("/:id/transactions", rl("queries"), walletHandler.ListTransactions)
		wallets.POST("/:id/deposit", rl("ledger_ops"), walletHandler.Deposit)
		wallets.POST("/:id/withdraw", rl("ledger_ops"), walletHandler.Withdraw)
	}

	transfers := v1.Group("/transfers")
	{
		transfers.POST("", rl("ledger_ops"), walletHandler.Transfer)
	}

	return r
}
