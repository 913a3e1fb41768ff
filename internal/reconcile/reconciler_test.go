package reconcile

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"imageforge/internal/blobstore"
	"imageforge/internal/domain"
)

type fakeJobs struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	writes int
}

func newFakeJobs(jobs ...*domain.Job) *fakeJobs {
	f := &fakeJobs{jobs: make(map[string]*domain.Job)}
	for _, j := range jobs {
		f.jobs[j.RecordKey] = j
	}
	return f
}

func (f *fakeJobs) Get(ctx context.Context, key string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) SetOutputURL(ctx context.Context, key, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[key]
	if !ok {
		return domain.ErrNotFound
	}
	if job.OutputURL != url {
		job.OutputURL = url
		f.writes++
	}
	return nil
}

func (f *fakeJobs) NormalizeDone(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[key]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status != domain.StatusDone {
		job.Status = domain.StatusDone
		f.writes++
	}
	return nil
}

func (f *fakeJobs) UpsertQueued(ctx context.Context, key, title string) (*domain.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeJobs) TryClaim(ctx context.Context, key string, staleBefore *time.Time) (*domain.Job, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (f *fakeJobs) ClaimNext(ctx context.Context) (*domain.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeJobs) MarkGenerating(ctx context.Context, key string) error {
	return errors.New("not implemented")
}

func (f *fakeJobs) Complete(ctx context.Context, key, bucket, path, url string) error {
	return errors.New("not implemented")
}

func (f *fakeJobs) Fail(ctx context.Context, key, message string) error {
	return errors.New("not implemented")
}

type fakeStore struct {
	artifacts map[string]bool
	validURLs map[string]bool
	refreshed string
}

func (f *fakeStore) Put(ctx context.Context, path string, data []byte, contentType string) (blobstore.PutResult, error) {
	return blobstore.PutResult{}, errors.New("not implemented")
}

func (f *fakeStore) Exists(ctx context.Context, path string) (bool, error) {
	return f.artifacts[path], nil
}

func (f *fakeStore) RefreshURL(ctx context.Context, path string) (string, error) {
	if !f.artifacts[path] {
		return "", domain.ErrNotFound
	}
	return f.refreshed, nil
}

func (f *fakeStore) URLValid(url string) bool {
	return f.validURLs[url]
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestReconcileMissingOutputPath(t *testing.T) {
	jobs := newFakeJobs(&domain.Job{RecordKey: "rec-1", Status: domain.StatusDone})
	r := New(jobs, &fakeStore{}, testLogger())

	result, err := r.Reconcile(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.OK || result.Reason != ReasonMissingOutputPath {
		t.Fatalf("unexpected result: %+v", result)
	}
	if jobs.writes != 0 {
		t.Fatalf("no repair possible, expected zero writes, got %d", jobs.writes)
	}
}

func TestReconcileArtifactMissing(t *testing.T) {
	jobs := newFakeJobs(&domain.Job{
		RecordKey:  "rec-1",
		Status:     domain.StatusDone,
		OutputPath: "generated/images/rec-1/cover.png",
	})
	r := New(jobs, &fakeStore{artifacts: map[string]bool{}}, testLogger())

	result, err := r.Reconcile(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.OK || result.Reason != ReasonArtifactMissing {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Status != domain.StatusDone {
		t.Fatalf("status must be left unchanged, got %s", result.Status)
	}
	if jobs.writes != 0 {
		t.Fatalf("external deletion is surfaced, not healed; got %d writes", jobs.writes)
	}
}

func TestReconcileRefreshesStaleURL(t *testing.T) {
	path := "generated/images/rec-1/cover.png"
	jobs := newFakeJobs(&domain.Job{
		RecordKey:  "rec-1",
		Status:     domain.StatusDone,
		OutputPath: path,
		OutputURL:  "http://old.invalid/unsigned.png",
	})
	store := &fakeStore{
		artifacts: map[string]bool{path: true},
		validURLs: map[string]bool{},
		refreshed: "http://localhost/static/cover.png?exp=1&sig=fresh",
	}
	r := New(jobs, store, testLogger())

	result, err := r.Reconcile(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected ok result: %+v", result)
	}
	if result.URL != store.refreshed {
		t.Fatalf("result url %q, want refreshed", result.URL)
	}
	job, _ := jobs.Get(context.Background(), "rec-1")
	if job.OutputURL != store.refreshed {
		t.Fatalf("refreshed url not persisted: %q", job.OutputURL)
	}
}

func TestReconcileNormalizesStatus(t *testing.T) {
	path := "generated/images/rec-1/cover.png"
	url := "http://localhost/static/cover.png?exp=1&sig=ok"
	jobs := newFakeJobs(&domain.Job{
		RecordKey:  "rec-1",
		Status:     domain.StatusError,
		OutputPath: path,
		OutputURL:  url,
	})
	store := &fakeStore{
		artifacts: map[string]bool{path: true},
		validURLs: map[string]bool{url: true},
	}
	r := New(jobs, store, testLogger())

	result, err := r.Reconcile(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.OK || result.Status != domain.StatusDone {
		t.Fatalf("unexpected result: %+v", result)
	}
	job, _ := jobs.Get(context.Background(), "rec-1")
	if job.Status != domain.StatusDone {
		t.Fatalf("status not normalized: %s", job.Status)
	}
}

func TestReconcileConsistentRecordWritesNothing(t *testing.T) {
	path := "generated/images/rec-1/cover.png"
	url := "http://localhost/static/cover.png?exp=1&sig=ok"
	jobs := newFakeJobs(&domain.Job{
		RecordKey:  "rec-1",
		Status:     domain.StatusDone,
		OutputPath: path,
		OutputURL:  url,
	})
	store := &fakeStore{
		artifacts: map[string]bool{path: true},
		validURLs: map[string]bool{url: true},
	}
	r := New(jobs, store, testLogger())

	// Repeated passes over a consistent record stay side-effect free.
	for i := 0; i < 3; i++ {
		result, err := r.Reconcile(context.Background(), "rec-1")
		if err != nil {
			t.Fatalf("Reconcile #%d: %v", i+1, err)
		}
		if !result.OK || result.URL != url {
			t.Fatalf("unexpected result: %+v", result)
		}
	}
	if jobs.writes != 0 {
		t.Fatalf("consistent record caused %d writes", jobs.writes)
	}
}

func TestReconcileUnknownRecord(t *testing.T) {
	r := New(newFakeJobs(), &fakeStore{}, testLogger())
	_, err := r.Reconcile(context.Background(), "rec-404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
