package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tastas/marketplace-core/internal/adapters/repository/postgres"
	"github.com/tastas/marketplace-core/internal/core/lifecycle"
	"github.com/tastas/marketplace-core/internal/platform/config"
	pg "github.com/tastas/marketplace-core/internal/platform/db/postgres"
)

// 日次バッチのワンショット実行です。cron から直接実行するか、
// HTTP トリガー（GET /cron/job-batch）を使用します。
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Printf("failed to initialize database pool: %v", err)
		return 1
	}
	defer dbPool.Close()

	batch := lifecycle.NewBatch(
		postgres.NewJobRepository(dbPool),
		pg.NewTransactionManager(dbPool),
		nil,
	)

	result, err := batch.Run(ctx)
	if err != nil {
		log.Printf("[CRON JOB-BATCH] run failed: %v", err)
		return 1
	}

	log.Printf("[CRON JOB-BATCH] run %s: switched=%d children=%d expired=%d",
		result.RunID, result.LimitedJobsSwitched, result.ChildJobsCreated, result.OffersExpired)
	for _, msg := range result.Errors {
		log.Printf("[CRON JOB-BATCH] error: %s", msg)
	}
	if !result.Success() {
		return 1
	}
	return 0
}
