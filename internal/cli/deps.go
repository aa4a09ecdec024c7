package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/config"
	"exam-prep-service/internal/infra/blob"
	"exam-prep-service/internal/infra/memory"
	"exam-prep-service/internal/infra/pdftext"
	"exam-prep-service/internal/infra/postgres"
	redisindex "exam-prep-service/internal/infra/redis"
)

// services holds the wired use cases plus whatever must be closed on exit.
type services struct {
	questions *app.QuestionService
	schedules *app.ScheduleService
	closers   []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices picks Postgres or memory for documents and Redis or memory
// for fingerprints, depending on what the config names.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	svc := &services{}

	var store app.DocumentStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
		store = postgres.NewDocumentStore(pool)
	} else {
		log.Printf("postgres url not configured, using in-memory document store")
		store = memory.NewDocumentStore()
	}

	loader := app.StoreFingerprints{Store: store}
	var index app.FingerprintIndex
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = client.Close() })
		index = redisindex.NewFingerprintIndex(client, loader, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		index = memory.NewFingerprintIndex(loader, config.TTLDuration(cfg.Fingerprints.TTL, time.Minute))
	}

	var blobs app.BlobStore
	if cfg.Blob.Dir != "" {
		fs, err := blob.NewFSStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			svc.Close()
			return nil, err
		}
		blobs = fs
	}

	svc.questions = app.NewQuestionService(store, index, blobs, pdftext.NewExtractor(cfg.PDF.Bin))
	svc.schedules = app.NewScheduleService(store)
	return svc, nil
}
