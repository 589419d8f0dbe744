package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corebank/config"
	httpHandler "corebank/internal/adapter/http/handler"
	memStorage "corebank/internal/adapter/storage/memory"
	pgStorage "corebank/internal/adapter/storage/postgres"
	redisStorage "corebank/internal/adapter/storage/redis"
	"corebank/internal/core/ports"
	"corebank/internal/service"
	"corebank/pkg/logger"
	"corebank/pkg/metrics"
)

// initialKeyID is the keyring slot new deployments encrypt under until
// an admin rotates to a new one.
const initialKeyID = "k1"

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("backend", cfg.Database.Backend).
		Int("port", cfg.Server.Port).
		Msg("Starting Core Banking API")

	ctx := context.Background()

	// Master key. Config validation already refused release mode with an
	// empty key; outside release an ephemeral key keeps local runs easy,
	// at the cost of unreadable PII after restart.
	masterKey := cfg.Crypto.MasterKey
	if masterKey == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate ephemeral master key")
		}
		masterKey = hex.EncodeToString(buf)
		log.Warn().Msg("crypto.master_key not set, using an ephemeral key; encrypted PII will not survive a restart")
	}

	// Crypto services
	encSvc, err := service.NewKeyringEncryptionService(masterKey, initialKeyID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption keyring")
	}
	fingerprintSvc := service.NewHMACFingerprintService(masterKey)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	m := metrics.New()

	// Storage backend
	var (
		userRepo         ports.UserRepository
		accountRepo      ports.AccountRepository
		txRepo           ports.TransactionRepository
		cardRepo         ports.CardRepository
		notificationRepo ports.NotificationRepository
		idempotencyRepo  ports.IdempotencyRepository
		auditRepo        ports.AuditRepository
		transactor       ports.DBTransactor
		idempotencyCache ports.IdempotencyCache
		rateLimitStore   *redisStorage.RateLimitStore
		healthCheckers   []ports.HealthChecker
	)

	switch cfg.Database.Backend {
	case "postgres":
		if err := pgStorage.Migrate(cfg.Database.DSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		userRepo = pgStorage.NewUserRepo(pool)
		accountRepo = pgStorage.NewAccountRepo(pool)
		txRepo = pgStorage.NewTransactionRepo(pool)
		cardRepo = pgStorage.NewCardRepo(pool)
		notificationRepo = pgStorage.NewNotificationRepo(pool)
		idempotencyRepo = pgStorage.NewIdempotencyRepo(pool)
		auditRepo = pgStorage.NewAuditRepository(pool)
		transactor = pgStorage.NewTransactor(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))

		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))

	case "memory":
		// Single-process backend for demos and tests. No Redis: the
		// idempotency cache is in-process and rate limiting is off.
		store := memStorage.NewStore()
		userRepo = memStorage.NewUserRepo(store)
		accountRepo = memStorage.NewAccountRepo(store)
		txRepo = memStorage.NewTransactionRepo(store)
		cardRepo = memStorage.NewCardRepo(store)
		notificationRepo = memStorage.NewNotificationRepo(store)
		idempotencyRepo = memStorage.NewIdempotencyRepo(store)
		auditRepo = memStorage.NewAuditRepository(store)
		transactor = store
		idempotencyCache = memStorage.NewIdempotencyCache()
		log.Warn().Msg("using in-memory storage; all data is lost on shutdown")
	}

	// Business services
	auditSvc := service.NewAuditService(auditRepo, log)
	notifier := service.NewNotificationDispatcher(notificationRepo, log)
	idSvc := service.NewIdentifierService(cfg.Bank.RoutingNumber, cfg.Bank.CardBIN, cardRepo, fingerprintSvc, log)
	ledgerSvc := service.NewLedgerService(accountRepo, txRepo, transactor, notifier, m, log)
	authSvc := service.NewAuthService(userRepo, hashSvc, encSvc, fingerprintSvc, tokenSvc, log)
	accountSvc := service.NewAccountService(accountRepo, userRepo, idSvc, ledgerSvc, m, cfg.Bank.Currency, log)
	transferSvc := service.NewTransferService(accountRepo, txRepo, idempotencyRepo, idempotencyCache, transactor, notifier, m, log)
	cardSvc := service.NewCardService(cardRepo, accountRepo, idSvc, encSvc, fingerprintSvc, log)
	adminSvc := service.NewAdminService(userRepo, accountRepo, txRepo, ledgerSvc, accountSvc, encSvc, authSvc, auditSvc, log)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		AccountSvc:      accountSvc,
		LedgerSvc:       ledgerSvc,
		TransferSvc:     transferSvc,
		CardSvc:         cardSvc,
		AdminSvc:        adminSvc,
		NotificationSvc: notifier,
		TokenSvc:        tokenSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  healthCheckers,
		AuditSvc:        auditSvc,
		Logger:          log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
