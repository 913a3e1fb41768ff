package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"imageforge/internal/adapter/repo"
	"imageforge/internal/blobstore"
	"imageforge/internal/domain"
	"imageforge/internal/genclient"
	"imageforge/internal/infra"
	"imageforge/internal/pipeline"
)

const jobPollInterval = 2 * time.Second

// jobWorker drains queued records: claim the oldest, run the pipeline, write
// the terminal state back. Pipeline failures land on the record, never crash
// the loop.
type jobWorker struct {
	ctx    context.Context
	jobs   domain.JobRepository
	pipe   *pipeline.Pipeline
	logger infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	signer := blobstore.NewURLSigner(cfg.URLSigningKey, cfg.StorageBaseURL, cfg.URLTTL)
	store, err := blobstore.NewFileStore(cfg.StoragePath, signer)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure blob store")
	}

	gen := genclient.NewClient(genclient.Options{
		APIKey:     cfg.GenAPIKey,
		BaseURL:    cfg.GenBaseURL,
		Model:      cfg.GenModel,
		HTTPClient: &http.Client{Timeout: cfg.GenTimeout},
		Logger:     &logger,
	})

	worker := &jobWorker{
		ctx:    ctx,
		jobs:   jobs,
		pipe:   pipeline.New(jobs, store, gen, logger, cfg.OutputBucket, cfg.ClaimStaleAfter),
		logger: logger,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.jobs.ClaimNext(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				time.Sleep(jobPollInterval)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			time.Sleep(jobPollInterval)
			continue
		}

		w.handleJob(job)
	}
}

func (w *jobWorker) handleJob(job *domain.Job) {
	w.logger.Info().Str("record_key", job.RecordKey).Msg("worker: picked job")
	result, err := w.pipe.RunClaimed(w.ctx, job, "", "", false)
	if err != nil {
		// Propagation is off; any error here is infrastructural.
		w.logger.Error().Err(err).Str("record_key", job.RecordKey).Msg("worker: pipeline error")
		return
	}
	w.logger.Info().
		Str("record_key", result.RecordKey).
		Str("status", string(result.Status)).
		Msg("worker: job finished")
}
