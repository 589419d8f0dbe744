package handler

import (
	"corebank/internal/adapter/http/middleware"
	redisStore "corebank/internal/adapter/storage/redis"
	"corebank/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	AccountSvc      ports.AccountService
	LedgerSvc       ports.LedgerService
	TransferSvc     ports.TransferService
	CardSvc         ports.CardService
	AdminSvc        ports.AdminService
	NotificationSvc ports.NotificationDispatcher
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	AuditSvc        ports.AuditService // nil = audit logging disabled
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

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

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accountHandler := NewAccountHandler(deps.AccountSvc, deps.LedgerSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	transferHandler := NewTransferHandler(deps.TransferSvc)
	cardHandler := NewCardHandler(deps.CardSvc)
	notificationHandler := NewNotificationHandler(deps.NotificationSvc)

	v1.GET("/profile", jwtAuth, rl("api"), authHandler.GetProfile)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("api"), accountHandler.Open)
		accounts.GET("", rl("api"), accountHandler.List)
		accounts.GET("/:id", rl("api"), accountHandler.Get)
		accounts.GET("/:id/transactions", rl("api"), accountHandler.ListTransactions)
	}

	v1.POST("/deposits", jwtAuth, rl("ledger"), ledgerHandler.Deposit)
	v1.POST("/withdrawals", jwtAuth, rl("ledger"), ledgerHandler.Withdraw)

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("api"), ledgerHandler.ListUserTransactions)
		transactions.GET("/:id", rl("api"), ledgerHandler.GetTransaction)
		transactions.POST("/:id/reverse", rl("ledger"), ledgerHandler.Reverse)
	}

	v1.POST("/transfers", jwtAuth, rl("transfers"), transferHandler.Transfer)

	cards := v1.Group("/cards", jwtAuth)
	{
		cards.POST("", rl("cards"), cardHandler.Issue)
		cards.GET("", rl("api"), cardHandler.List)
		cards.PATCH("/:id/status", rl("api"), cardHandler.UpdateStatus)
	}

	notifications := v1.Group("/notifications", jwtAuth)
	{
		notifications.GET("", rl("api"), notificationHandler.List)
		notifications.GET("/unread-count", rl("api"), notificationHandler.UnreadCount)
		notifications.POST("/:id/read", rl("api"), notificationHandler.MarkRead)
	}

	// --- Admin routes (JWT + role gate) ---
	adminHandler := NewAdminHandler(deps.AdminSvc)
	admin := v1.Group("/admin", jwtAuth, middleware.RequireAdmin())
	{
		admin.GET("/users", rl("api"), adminHandler.ListUsers)
		admin.GET("/users/:id", rl("api"), adminHandler.GetUser)
		admin.POST("/users/:id/verify", rl("api"), adminHandler.VerifyUser)
		admin.POST("/users/:id/lock", rl("api"), adminHandler.LockUser)
		admin.POST("/users/:id/unlock", rl("api"), adminHandler.UnlockUser)
		admin.PATCH("/users/:id/kyc", rl("api"), adminHandler.UpdateKYC)
		admin.POST("/users/:id/adjust-balance", rl("api"), adminHandler.AdjustBalance)
		admin.PATCH("/accounts/:id/status", rl("api"), adminHandler.SetAccountStatus)
		admin.POST("/rotate-keys", rl("api"), adminHandler.RotateKeys)
		admin.GET("/stats", rl("api"), adminHandler.Stats)
	}

	return r
}
