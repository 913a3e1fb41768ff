package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job records. The claim methods are
// the only synchronization point in the system and must be atomic against
// duplicate trigger deliveries.
type JobRepository interface {
	// UpsertQueued creates the record with status queued, or re-queues an
	// existing record that is in error. Records in any other state are
	// returned unchanged.
	UpsertQueued(ctx context.Context, key, title string) (*Job, error)

	// Get fetches a record by key, returning ErrNotFound when absent.
	Get(ctx context.Context, key string) (*Job, error)

	// TryClaim atomically transitions queued -> processing and stamps
	// StartedAt. It returns claimed=false without writing when the record is
	// not claimable. A non-nil staleBefore additionally allows reclaiming a
	// processing/generating record whose UpdatedAt is older than the cutoff.
	TryClaim(ctx context.Context, key string, staleBefore *time.Time) (job *Job, claimed bool, err error)

	// ClaimNext claims the oldest queued record, returning ErrNotFound when
	// none is available. Concurrent callers never claim the same record.
	ClaimNext(ctx context.Context) (*Job, error)

	// MarkGenerating records the optional observability transition after a
	// claim. Persistence failure is non-fatal for callers.
	MarkGenerating(ctx context.Context, key string) error

	// Complete sets status done, records the output location and URL, clears
	// the error message, and stamps CompletedAt. Repeating the call with
	// identical arguments writes nothing.
	Complete(ctx context.Context, key, outputBucket, outputPath, outputURL string) error

	// Fail sets status error, stores the message, and increments ErrorCount.
	// Recording the identical failure on a record already in error writes
	// nothing, so duplicate deliveries do not double-count.
	Fail(ctx context.Context, key, message string) error

	// SetOutputURL overwrites the stored URL only when it differs.
	SetOutputURL(ctx context.Context, key, url string) error

	// NormalizeDone forces status done without touching output fields, used
	// by the reconciler after verifying the artifact. Writes nothing when the
	// record is already done.
	NormalizeDone(ctx context.Context, key string) error
}
