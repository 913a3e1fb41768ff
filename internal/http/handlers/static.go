package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ServeArtifact serves a stored artifact after verifying the URL's signature
// and expiry. Requests without a valid marker never reach the filesystem.
func (a *App) ServeArtifact(w http.ResponseWriter, r *http.Request) {
	if a.Static == nil {
		a.error(w, http.StatusNotFound, "not_found", "static serving disabled")
		return
	}
	if !a.Static.URLValid(r.URL.String()) {
		a.error(w, http.StatusForbidden, "forbidden", "invalid or expired signature")
		return
	}

	key := chi.URLParam(r, "*")
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid artifact path")
		return
	}

	http.ServeFile(w, r, filepath.Join(a.Static.BasePath(), filepath.FromSlash(key)))
}
