package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"imageforge/internal/domain"
)

type upsertRecordRequest struct {
	RecordKey string `json:"record_key"`
	Title     string `json:"title,omitempty"`
}

// UpsertRecord creates a queued job record (or re-queues one in error) so the
// reactive paths have something to pick up.
func (a *App) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	var req upsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.RecordKey) == "" {
		a.error(w, http.StatusBadRequest, "validation", "record_key is required")
		return
	}

	job, err := a.Jobs.UpsertQueued(r.Context(), strings.TrimSpace(req.RecordKey), strings.TrimSpace(req.Title))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue record")
		return
	}
	a.json(w, http.StatusAccepted, viewOf(job))
}

// GetRecord returns the current record state.
func (a *App) GetRecord(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	job, err := a.Jobs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load record")
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}

type recordGenerateRequest struct {
	Prompt string `json:"prompt,omitempty"`
	Size   string `json:"size,omitempty"`
}

// GenerateRecord is the reactive trigger surface: it claims the record and
// runs the pipeline, writing the outcome back into the record. Failures are
// recorded on the job rather than re-thrown unless the propagation policy
// says otherwise; trigger platforms redeliver thrown errors in a loop.
func (a *App) GenerateRecord(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req recordGenerateRequest
	if r.Body != nil {
		// The reactive trigger may post an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	job, err := a.Pipe.Run(r.Context(), key, req.Prompt, req.Size, a.PropagateTriggerErrors)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		a.error(w, http.StatusBadGateway, "pipeline", err.Error())
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}

// ReconcileRecord verifies a completed record against the blob store and
// repairs URL or status drift. Drift is reported in the structured result,
// never as an HTTP error.
func (a *App) ReconcileRecord(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	result, err := a.Reconciler.Reconcile(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.json(w, http.StatusOK, result)
}
