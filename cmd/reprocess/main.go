// Command reprocess resubmits failed documents for another pipeline run.
// Failed is a terminal state, so each document is resubmitted as a fresh
// record over the same stored bytes rather than mutated in place.
// Usage: go run ./cmd/reprocess
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"matterdesk/internal/config"
	"matterdesk/internal/domain"
	"matterdesk/internal/engine"
	"matterdesk/internal/engine/claude"
	"matterdesk/internal/engine/rules"
	"matterdesk/internal/port"
	"matterdesk/internal/repository/postgres"
	"matterdesk/internal/service"
	s3storage "matterdesk/internal/storage/s3"
)

const batchSize = 50

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	records := postgres.NewDocumentRecordRepo(db)
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("initializing S3 client: %w", err)
	}

	var primary port.ExtractionEngine
	if cfg.Engine.Primary.APIKey != "" {
		primary = claude.NewEngine(&cfg.Engine.Primary)
	}
	coordinator := engine.NewCoordinator(primary, rules.NewEngine(),
		time.Duration(cfg.Engine.TimeoutSecs)*time.Second)

	documentSvc := service.NewDocumentService(records, s3Client, &cfg.S3)
	pipeline := service.NewPipeline(documentSvc, records, s3Client, coordinator, nil, &cfg.S3, cfg.Pipeline)

	ctx := context.Background()
	offset := 0
	total := 0

	for {
		failed, _, err := records.ListByState(ctx, domain.StateFailed, offset, batchSize)
		if err != nil {
			return fmt.Errorf("listing failed documents: %w", err)
		}
		if len(failed) == 0 {
			break
		}

		for i := range failed {
			old := &failed[i]
			key := service.BlobKey(old.MatterID, old.ID, old.FileName)
			data, err := s3Client.Download(ctx, cfg.S3.Bucket, key)
			if err != nil {
				log.Printf("reprocess: skipping %s: downloading blob: %v", old.ID, err)
				continue
			}

			rec, err := documentSvc.Submit(ctx, service.SubmitInput{
				MatterID:    old.MatterID,
				FileName:    old.FileName,
				ContentType: "application/pdf",
				Data:        data,
			})
			if err != nil {
				log.Printf("reprocess: resubmitting %s: %v", old.ID, err)
				continue
			}

			log.Printf("reprocess: %s resubmitted as %s", old.ID, rec.ID)
			pipeline.Run(ctx, rec.ID)
			total++
		}

		offset += batchSize
	}

	log.Printf("reprocess: done, %d documents resubmitted", total)
	return nil
}
