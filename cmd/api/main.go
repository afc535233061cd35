package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio_sales_backend/internal/adapters"
	"studio_sales_backend/internal/email"
	"studio_sales_backend/internal/events"
	apphttp "studio_sales_backend/internal/http"
	"studio_sales_backend/internal/http/router"
	"studio_sales_backend/internal/leads"
	"studio_sales_backend/internal/notification"
	"studio_sales_backend/internal/payments/stripe"
	"studio_sales_backend/internal/quotes"
	"studio_sales_backend/internal/reports"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/internal/scheduler"
	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/db"
	"studio_sales_backend/platform/logger"
	"studio_sales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	rules, err := scoring.LoadRules(cfg.GetScoringRulesPath())
	if err != nil {
		log.Error("failed to load scoring rules", "error", err, "path", cfg.GetScoringRulesPath())
		panic("failed to load scoring rules: " + err.Error())
	}
	scoringEngine := scoring.New(rules)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg, log)
	} else {
		log.Warn("SMTP not configured; outbound email disabled")
		sender = email.NewNoopSender(log)
	}
	notification.New(sender, cfg, log).Register(eventBus)

	leadsModule := leads.NewModule(pool)
	quotesModule := quotes.NewModule(pool, adapters.NewLeadDirectory(leadsModule.Service()), val, log)
	reportsModule := reports.NewModule(pool, scoringEngine, val, log)

	// Cross-module wiring through adapters (breaks circular dependencies)
	quotesModule.Service().SetEventBus(eventBus)
	quotesModule.Service().SetReportGenerator(adapters.NewReportGenerator(reportsModule.Service()))
	reportsModule.Service().SetEventBus(eventBus)
	reportsModule.Service().SetQuoteStore(adapters.NewQuoteStore(quotesModule.Service()))

	if cfg.IsCheckoutEnabled() {
		quotesModule.Service().SetCheckoutGateway(stripe.New(cfg))
		log.Info("checkout gateway initialized")
	} else {
		log.Warn("CHECKOUT_SECRET_KEY not configured; deposit links disabled")
	}

	if cfg.GetRedisAddr() != "" {
		taskClient := scheduler.NewClient(cfg, log)
		defer taskClient.Close()
		reportsModule.SetScheduler(taskClient)
		log.Info("task queue client initialized", "redis", cfg.GetRedisAddr())
	} else {
		log.Warn("REDIS_ADDR not configured; async backfill disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			quotesModule,
			reportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
