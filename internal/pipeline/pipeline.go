// Package pipeline is the single orchestration every trigger adapter runs:
// claim the record, resolve the prompt, generate, store, write back the
// terminal state. Handlers only differ in how they extract input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"imageforge/internal/blobstore"
	"imageforge/internal/domain"
	"imageforge/internal/genclient"
	"imageforge/internal/infra"
	"imageforge/internal/prompt"
)

// Outcome reports where a generated artifact landed.
type Outcome struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Pipeline wires the collaborators behind every generation trigger.
type Pipeline struct {
	jobs   domain.JobRepository
	store  blobstore.Store
	gen    genclient.Generator
	logger infra.Logger

	outputBucket string
	// staleAfter > 0 allows reclaiming a processing record whose last update
	// is older than the threshold; zero preserves never-reclaim behavior.
	staleAfter time.Duration
}

func New(jobs domain.JobRepository, store blobstore.Store, gen genclient.Generator, logger infra.Logger, outputBucket string, staleAfter time.Duration) *Pipeline {
	return &Pipeline{
		jobs:         jobs,
		store:        store,
		gen:          gen,
		logger:       logger,
		outputBucket: outputBucket,
		staleAfter:   staleAfter,
	}
}

// OutputPath is the deterministic artifact path for a record key. Retries
// reuse it, so repeated attempts overwrite rather than accumulate orphans.
func OutputPath(recordKey string) string {
	return fmt.Sprintf("generated/images/%s/cover.png", recordKey)
}

// Direct generates without a backing record: the prompt is required, the
// output key is optional, and errors propagate to the caller since there is
// no record to annotate.
func (p *Pipeline) Direct(ctx context.Context, promptText, size, outputKey string) (Outcome, error) {
	promptText = strings.TrimSpace(promptText)
	if promptText == "" {
		return Outcome{}, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}

	width, height := genclient.ParseSize(size)
	data, err := p.gen.Generate(ctx, promptText, width, height)
	if err != nil {
		return Outcome{}, err
	}

	path := strings.TrimSpace(outputKey)
	if path == "" {
		path = fmt.Sprintf("direct/%s.png", uuid.NewString())
	}
	res, err := p.store.Put(ctx, path, data, "image/png")
	if err != nil {
		return Outcome{}, err
	}

	p.logger.Info().Str("path", path).Msg("pipeline: direct generation stored")
	return Outcome{Path: path, URL: res.URL}, nil
}

// Run claims the record and processes it. A lost claim is a silent no-op:
// another delivery owns the job or it is already resolved. The propagate flag
// decides whether a mid-job failure is re-thrown after being recorded.
func (p *Pipeline) Run(ctx context.Context, recordKey, overridePrompt, size string, propagate bool) (*domain.Job, error) {
	var staleBefore *time.Time
	if p.staleAfter > 0 {
		cutoff := time.Now().Add(-p.staleAfter)
		staleBefore = &cutoff
	}

	job, claimed, err := p.jobs.TryClaim(ctx, recordKey, staleBefore)
	if err != nil {
		return nil, err
	}
	if !claimed {
		p.logger.Debug().
			Str("record_key", recordKey).
			Str("status", string(job.Status)).
			Msg("pipeline: claim lost, skipping")
		return job, nil
	}

	return p.RunClaimed(ctx, job, overridePrompt, size, propagate)
}

// RunClaimed processes a record this invocation already owns. Used by Run and
// by the worker's claim-next loop.
func (p *Pipeline) RunClaimed(ctx context.Context, job *domain.Job, overridePrompt, size string, propagate bool) (*domain.Job, error) {
	promptText := prompt.Resolve(job, overridePrompt)
	job.Prompt = promptText

	// Observability only; a failed write here must not stop the attempt.
	if err := p.jobs.MarkGenerating(ctx, job.RecordKey); err != nil {
		p.logger.Warn().Err(err).Str("record_key", job.RecordKey).Msg("pipeline: mark generating failed")
	}

	width, height := genclient.ParseSize(size)
	data, err := p.gen.Generate(ctx, promptText, width, height)
	if err != nil {
		return p.recordFailure(ctx, job, err, propagate)
	}

	path := OutputPath(job.RecordKey)
	res, err := p.store.Put(ctx, path, data, "image/png")
	if err != nil {
		return p.recordFailure(ctx, job, err, propagate)
	}

	if err := p.jobs.Complete(ctx, job.RecordKey, p.outputBucket, path, res.URL); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Record vanished between claim and completion; drop the update.
			p.logger.Error().Str("record_key", job.RecordKey).Msg("pipeline: record vanished before completion")
			return job, nil
		}
		return p.recordFailure(ctx, job, err, propagate)
	}

	now := time.Now()
	job.Status = domain.StatusDone
	job.OutputBucket = p.outputBucket
	job.OutputPath = path
	job.OutputURL = res.URL
	job.ErrorMessage = ""
	job.CompletedAt = &now
	job.UpdatedAt = now

	p.logger.Info().
		Str("record_key", job.RecordKey).
		Str("output_path", path).
		Msg("pipeline: generation complete")
	return job, nil
}

// recordFailure writes the terminal error state. Failing to record a failure
// is logged, never escalated, so the original error is not masked.
func (p *Pipeline) recordFailure(ctx context.Context, job *domain.Job, cause error, propagate bool) (*domain.Job, error) {
	message := cause.Error()
	if err := p.jobs.Fail(ctx, job.RecordKey, message); err != nil {
		p.logger.Error().Err(err).Str("record_key", job.RecordKey).Msg("pipeline: failed to record failure")
	}

	job.Status = domain.StatusError
	job.ErrorMessage = message
	job.ErrorCount++
	job.UpdatedAt = time.Now()

	p.logger.Error().Err(cause).Str("record_key", job.RecordKey).Msg("pipeline: generation failed")
	if propagate {
		return job, cause
	}
	return job, nil
}
