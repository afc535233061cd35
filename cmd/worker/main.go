// Background worker: consumes queued tasks (report backfills) from Redis.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio_sales_backend/internal/adapters"
	"studio_sales_backend/internal/events"
	"studio_sales_backend/internal/leads"
	"studio_sales_backend/internal/quotes"
	"studio_sales_backend/internal/reports"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/internal/scheduler"
	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/db"
	"studio_sales_backend/platform/logger"
	"studio_sales_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "redis", cfg.GetRedisAddr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fail fast if Redis is unreachable; the worker is useless without it.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Error("failed to reach redis", "error", err)
		panic("failed to reach redis: " + err.Error())
	}
	_ = redisClient.Close()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	rules, err := scoring.LoadRules(cfg.GetScoringRulesPath())
	if err != nil {
		log.Error("failed to load scoring rules", "error", err)
		panic("failed to load scoring rules: " + err.Error())
	}

	leadsModule := leads.NewModule(pool)
	quotesModule := quotes.NewModule(pool, adapters.NewLeadDirectory(leadsModule.Service()), val, log)
	reportsModule := reports.NewModule(pool, scoring.New(rules), val, log)

	quotesModule.Service().SetEventBus(eventBus)
	quotesModule.Service().SetReportGenerator(adapters.NewReportGenerator(reportsModule.Service()))
	reportsModule.Service().SetEventBus(eventBus)
	reportsModule.Service().SetQuoteStore(adapters.NewQuoteStore(quotesModule.Service()))

	worker := scheduler.NewWorker(cfg, reportsModule.Service(), log)

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}
}
