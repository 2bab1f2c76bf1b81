package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/events"
	apphttp "paintquote_backend/internal/http"
	"paintquote_backend/internal/http/router"
	"paintquote_backend/internal/quotes"
	"paintquote_backend/internal/quotes/numbering"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/internal/scheduler"
	"paintquote_backend/migrations"
	"paintquote_backend/platform/ai/completion"
	"paintquote_backend/platform/cache"
	"paintquote_backend/platform/config"
	"paintquote_backend/platform/db"
	"paintquote_backend/platform/dynamo"
	"paintquote_backend/platform/logger"
	"paintquote_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := db.RunMigrations(ctx, pool, migrations.FS, "."); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var redisClient *redis.Client
	if cfg.IsRedisEnabled() {
		redisClient, err = cache.NewRedis(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("redis connection established")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	eventBus.Subscribe(events.QuoteCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created := e.(events.QuoteCreated)
		log.WithContext(ctx).Info("quote draft ready", "quoteNumber", created.QuoteNumber, "forced", created.Forced, "degradedNumber", created.Degraded)
		return nil
	}))

	// Shared validator instance for dependency injection
	val := validator.New()

	completionSvc, err := completion.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize completion service", "error", err)
		panic("failed to initialize completion service: " + err.Error())
	}
	log.Info("completion service initialized", "provider", cfg.GetCompletionProvider())

	policy, err := pricing.LoadPolicy(cfg.GetPricingPolicyFile())
	if err != nil {
		log.Error("failed to load pricing policy", "error", err)
		panic("failed to load pricing policy: " + err.Error())
	}

	var janitorJobs []scheduler.Job

	var store conversation.Store
	switch cfg.GetConversationBackend() {
	case config.BackendRedis:
		store = conversation.NewRedisStore(redisClient, cfg.GetConversationIdleTTL())
	default:
		memStore := conversation.NewMemoryStore(cfg.GetConversationIdleTTL())
		janitorJobs = append(janitorJobs, scheduler.ConversationJob(memStore, eventBus))
		store = memStore
	}

	var chatLimiter, quoteLimiter ratelimit.Limiter
	switch cfg.GetRateLimitBackend() {
	case config.BackendRedis:
		chatLimiter = ratelimit.NewRedisLimiter(redisClient, cfg.GetChatRateLimit(), cfg.GetChatRateWindow())
		quoteLimiter = ratelimit.NewRedisLimiter(redisClient, cfg.GetQuoteRateLimit(), cfg.GetQuoteRateWindow())
	default:
		chatMem := ratelimit.NewMemoryLimiter(cfg.GetChatRateLimit(), cfg.GetChatRateWindow())
		quoteMem := ratelimit.NewMemoryLimiter(cfg.GetQuoteRateLimit(), cfg.GetQuoteRateWindow())
		janitorJobs = append(janitorJobs,
			scheduler.Job{Name: "chat-limiter", Sweeper: chatMem},
			scheduler.Job{Name: "quote-limiter", Sweeper: quoteMem},
		)
		chatLimiter, quoteLimiter = chatMem, quoteMem
	}

	var counter numbering.Counter
	switch cfg.GetCounterBackend() {
	case config.BackendRedis:
		counter = numbering.NewRedisCounter(redisClient)
	case config.BackendDynamoDB:
		ddb, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize dynamodb client", "error", err)
			panic("failed to initialize dynamodb client: " + err.Error())
		}
		counter = numbering.NewDynamoCounter(ddb, cfg.GetDynamoDBCounterTable())
	}
	log.Info("backends selected",
		"conversations", cfg.GetConversationBackend(),
		"rateLimit", cfg.GetRateLimitBackend(),
		"counter", cfg.GetCounterBackend(),
	)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	quotesModule, err := quotes.NewModule(quotes.ModuleDeps{
		Pool:           pool,
		Store:          store,
		Completion:     completionSvc,
		Counter:        counter,
		CounterTimeout: cfg.GetCounterTimeout(),
		Policy:         policy,
		PhoneRegion:    cfg.GetPhoneDefaultRegion(),
		CriticalFields: cfg.GetConfidenceCriticalFields(),
		ChatLimiter:    chatLimiter,
		QuoteLimiter:   quoteLimiter,
		EventBus:       eventBus,
		Validator:      val,
		Logger:         log,
	})
	if err != nil {
		log.Error("failed to initialize quotes module", "error", err)
		panic("failed to initialize quotes module: " + err.Error())
	}

	ipLimiter := router.NewIPLimiter(log)
	janitorJobs = append(janitorJobs, scheduler.Job{Name: "ip-limiter", Sweeper: ipLimiter})

	janitor := scheduler.NewJanitor(log, cfg.GetJanitorInterval(), janitorJobs...)
	go janitor.Run(ctx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:    cfg,
		Logger:    log,
		Health:    db.PoolChecker{Pool: pool},
		IPLimiter: ipLimiter,
		Modules: []apphttp.Module{
			quotesModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
