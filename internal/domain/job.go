package domain

import "time"

// Status enumerates job lifecycle states. Transitions are monotonic within a
// single attempt: queued -> processing -> (generating) -> done | error.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusGenerating Status = "generating"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Job tracks one image generation request, keyed by an external record key.
type Job struct {
	RecordKey    string
	Status       Status
	Title        string
	Prompt       string
	SourceBucket string
	SourcePath   string
	OutputBucket string
	OutputPath   string
	OutputURL    string
	ErrorMessage string
	ErrorCount   int
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the job has reached a final state for the current attempt.
func (j *Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusError
}
