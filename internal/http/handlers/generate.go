package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"imageforge/internal/domain"
)

type directGenerateRequest struct {
	Prompt    string `json:"prompt"`
	Size      string `json:"size,omitempty"`
	OutputKey string `json:"output_key,omitempty"`
}

// DirectGenerate runs the pipeline without a backing record and returns the
// stored artifact's location. This is the only trigger surface that
// propagates generation errors to the caller; there is no record to annotate.
func (a *App) DirectGenerate(w http.ResponseWriter, r *http.Request) {
	var req directGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	outcome, err := a.Pipe.Direct(r.Context(), req.Prompt, req.Size, req.OutputKey)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			a.error(w, http.StatusBadRequest, "validation", err.Error())
		case errors.Is(err, domain.ErrStorage):
			a.error(w, http.StatusBadGateway, "storage", err.Error())
		default:
			a.error(w, http.StatusBadGateway, "generation", err.Error())
		}
		return
	}

	a.json(w, http.StatusOK, outcome)
}
