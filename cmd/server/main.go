package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	_ "matterdesk/docs"
	"matterdesk/internal/config"
	"matterdesk/internal/email/noop"
	"matterdesk/internal/email/ses"
	"matterdesk/internal/engine"
	"matterdesk/internal/engine/claude"
	"matterdesk/internal/engine/rules"
	"matterdesk/internal/handler"
	"matterdesk/internal/poller"
	"matterdesk/internal/port"
	"matterdesk/internal/repository/postgres"
	"matterdesk/internal/router"
	"matterdesk/internal/service"
	s3storage "matterdesk/internal/storage/s3"
)

// @title Matterdesk API
// @version 1.0
// @description Matter document processing and time entry capture
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Stores
	records := postgres.NewDocumentRecordRepo(db)
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Extraction engines
	var primary port.ExtractionEngine
	if cfg.Engine.Primary.APIKey != "" {
		primary = claude.NewEngine(&cfg.Engine.Primary)
	}
	coordinator := engine.NewCoordinator(
		primary,
		rules.NewEngine(),
		time.Duration(cfg.Engine.TimeoutSecs)*time.Second,
	)

	// Email
	var sender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		sender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noop.NewNoopSender()
	}
	notifier := service.NewNotifier(sender, cfg.Email)

	// Services
	documentSvc := service.NewDocumentService(records, s3Client, &cfg.S3)
	pipeline := service.NewPipeline(documentSvc, records, s3Client, coordinator, notifier, &cfg.S3, cfg.Pipeline)
	timeEntrySvc := service.NewTimeEntryService(coordinator)
	observer := poller.New(records, poller.Config{
		MaxAttempts: cfg.Poller.MaxAttempts,
		Delay:       time.Duration(cfg.Poller.DelaySecs) * time.Second,
	})

	// Handlers
	documentH := handler.NewDocumentHandler(documentSvc, pipeline, observer)
	timeEntryH := handler.NewTimeEntryHandler(timeEntrySvc)
	reportH := handler.NewReportHandler(records)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, documentH, timeEntryH, reportH, healthH)

	// Requeue worker recovers documents whose pipeline run died mid-flight.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	worker := service.NewRequeueWorker(records, pipeline, service.RequeueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
		StaleAfter:   time.Duration(cfg.Queue.StaleAfterSecs) * time.Second,
	})
	go worker.Start(ctx)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
