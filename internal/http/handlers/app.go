package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"imageforge/internal/blobstore"
	"imageforge/internal/domain"
	"imageforge/internal/infra"
	"imageforge/internal/pipeline"
	"imageforge/internal/reconcile"
)

// App bundles the handler dependencies. Every collaborator is injected so
// tests can substitute fakes.
type App struct {
	Jobs       domain.JobRepository
	Pipe       *pipeline.Pipeline
	Reconciler *reconcile.Reconciler
	Logger     infra.Logger

	// Static serves signed artifact URLs when the filesystem store is in use.
	Static *blobstore.FileStore

	// PropagateTriggerErrors re-throws record-pipeline failures to the caller
	// instead of only recording them on the job.
	PropagateTriggerErrors bool
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// jobView is the record shape returned by the HTTP surface.
type jobView struct {
	RecordKey    string     `json:"record_key"`
	Status       string     `json:"status"`
	Title        string     `json:"title,omitempty"`
	OutputBucket string     `json:"output_bucket,omitempty"`
	OutputPath   string     `json:"output_path,omitempty"`
	OutputURL    string     `json:"output_url,omitempty"`
	Error        string     `json:"error,omitempty"`
	ErrorCount   int        `json:"error_count"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func viewOf(job *domain.Job) jobView {
	return jobView{
		RecordKey:    job.RecordKey,
		Status:       string(job.Status),
		Title:        job.Title,
		OutputBucket: job.OutputBucket,
		OutputPath:   job.OutputPath,
		OutputURL:    job.OutputURL,
		Error:        job.ErrorMessage,
		ErrorCount:   job.ErrorCount,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
