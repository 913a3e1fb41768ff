// Package reconcile repairs drift between a record's persisted done state and
// the blob store: vanished artifacts are surfaced, stale or unsigned URLs are
// reissued, and the status is normalized back to done.
package reconcile

import (
	"context"
	"fmt"

	"imageforge/internal/blobstore"
	"imageforge/internal/domain"
	"imageforge/internal/infra"
)

// Result is the structured outcome of a reconciliation pass. Drift that
// cannot be repaired (missing path, deleted artifact) is reported here rather
// than as an error.
type Result struct {
	OK     bool          `json:"ok"`
	Reason string        `json:"reason,omitempty"`
	Status domain.Status `json:"status"`
	URL    string        `json:"url,omitempty"`
}

const (
	ReasonMissingOutputPath = "missing output path"
	ReasonArtifactMissing   = "artifact missing"
)

// Reconciler verifies and repairs completed jobs.
type Reconciler struct {
	jobs   domain.JobRepository
	store  blobstore.Store
	logger infra.Logger
}

func New(jobs domain.JobRepository, store blobstore.Store, logger infra.Logger) *Reconciler {
	return &Reconciler{jobs: jobs, store: store, logger: logger}
}

// Reconcile checks that the record's artifact still exists and its URL is
// still valid, refreshing the URL and normalizing the status as needed. The
// pass is idempotent: each step writes only when a change is actually
// required, so a consistent record causes zero writes.
func (r *Reconciler) Reconcile(ctx context.Context, key string) (Result, error) {
	job, err := r.jobs.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if job.OutputPath == "" {
		return Result{OK: false, Reason: ReasonMissingOutputPath, Status: job.Status}, nil
	}

	exists, err := r.store.Exists(ctx, job.OutputPath)
	if err != nil {
		return Result{}, fmt.Errorf("check artifact: %w", err)
	}
	if !exists {
		// External deletion: surfaced, not auto-healed.
		r.logger.Warn().
			Str("record_key", key).
			Str("output_path", job.OutputPath).
			Msg("reconcile: artifact missing")
		return Result{OK: false, Reason: ReasonArtifactMissing, Status: job.Status}, nil
	}

	url := job.OutputURL
	if !r.store.URLValid(url) {
		url, err = r.store.RefreshURL(ctx, job.OutputPath)
		if err != nil {
			return Result{}, fmt.Errorf("refresh url: %w", err)
		}
		if err := r.jobs.SetOutputURL(ctx, key, url); err != nil {
			return Result{}, fmt.Errorf("persist refreshed url: %w", err)
		}
		r.logger.Info().Str("record_key", key).Msg("reconcile: refreshed output url")
	}

	if job.Status != domain.StatusDone {
		if err := r.jobs.NormalizeDone(ctx, key); err != nil {
			return Result{}, fmt.Errorf("normalize status: %w", err)
		}
		r.logger.Info().
			Str("record_key", key).
			Str("from", string(job.Status)).
			Msg("reconcile: normalized status to done")
	}

	return Result{OK: true, Status: domain.StatusDone, URL: url}, nil
}
