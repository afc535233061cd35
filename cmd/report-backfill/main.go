// One-shot CLI for batch report generation, for operators who want a
// synchronous run with the result printed instead of queueing a task.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"studio_sales_backend/internal/adapters"
	"studio_sales_backend/internal/leads"
	"studio_sales_backend/internal/quotes"
	"studio_sales_backend/internal/reports"
	"studio_sales_backend/internal/reports/scoring"
	reportsvc "studio_sales_backend/internal/reports/service"
	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/db"
	"studio_sales_backend/platform/logger"
	"studio_sales_backend/platform/validator"
)

func main() {
	mode := flag.String("mode", reportsvc.ModeAllMissing, "backfill mode: all_missing or all")
	limit := flag.Int("limit", 500, "maximum number of quotes to consider")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	rules, err := scoring.LoadRules(cfg.GetScoringRulesPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load scoring rules:", err)
		os.Exit(1)
	}

	val := validator.New()
	leadsModule := leads.NewModule(pool)
	quotesModule := quotes.NewModule(pool, adapters.NewLeadDirectory(leadsModule.Service()), val, log)
	reportsModule := reports.NewModule(pool, scoring.New(rules), val, log)
	reportsModule.Service().SetQuoteStore(adapters.NewQuoteStore(quotesModule.Service()))
	quotesModule.Service().SetReportGenerator(adapters.NewReportGenerator(reportsModule.Service()))

	result, err := reportsModule.Service().Backfill(ctx, *mode, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "backfill failed:", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
