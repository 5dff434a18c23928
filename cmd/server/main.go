package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	httphandler "github.com/tastas/marketplace-core/internal/adapters/http/handler"
	"github.com/tastas/marketplace-core/internal/adapters/repository/postgres"
	"github.com/tastas/marketplace-core/internal/core/application"
	"github.com/tastas/marketplace-core/internal/core/attendance"
	"github.com/tastas/marketplace-core/internal/core/job"
	"github.com/tastas/marketplace-core/internal/core/lifecycle"
	"github.com/tastas/marketplace-core/internal/platform/config"
	pg "github.com/tastas/marketplace-core/internal/platform/db/postgres"
	"github.com/tastas/marketplace-core/internal/platform/server"
)

func main() {
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
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	clock := job.RealClock{}

	jobRepo := postgres.NewJobRepository(dbPool)
	applicationRepo := postgres.NewApplicationRepository(dbPool)
	attendanceRepo := postgres.NewAttendanceRepository(dbPool)

	availabilitySvc := job.NewAvailabilityService(jobRepo, applicationRepo, clock)
	applicationSvc := application.NewService(applicationRepo, applicationRepo, jobRepo, txManager, clock)
	attendanceSvc := attendance.NewService(attendanceRepo, applicationRepo, jobRepo, applicationSvc, txManager, clock)
	batch := lifecycle.NewBatch(jobRepo, txManager, clock)

	router := httphandler.NewRouter(httphandler.RouterDependencies{
		Availability: httphandler.NewAvailabilityHandler(availabilitySvc),
		Application:  httphandler.NewApplicationHandler(applicationSvc),
		Attendance:   httphandler.NewAttendanceHandler(attendanceSvc),
		Batch:        httphandler.NewBatchHandler(batch, cfg.Batch.CronSecret),
	})

	httpServer := server.New(cfg.Server.ListenAddr, router, cfg.Server.RequestTimeout)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
