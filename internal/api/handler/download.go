package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/docminer/docminer/internal/api/response"
	"github.com/docminer/docminer/internal/store"
	"github.com/go-chi/chi/v5"
)

var contentTypes = map[string]string{
	"results.csv":  "text/csv",
	"results.html": "text/html; charset=utf-8",
	"results.json": "application/json",
}

// NewDownloadHandler returns an http.HandlerFunc for
// GET /api/v1/analyze/{jobID}/download/{filename}.
func NewDownloadHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseJobID(w, r)
		if !ok {
			return
		}

		filename := chi.URLParam(r, "filename")
		ct, known := contentTypes[filename]
		if !known {
			response.Error(w, http.StatusNotFound, "ARTIFACT_NOT_FOUND", "No such artifact", nil)
			return
		}

		rc, err := svc.OpenArtifact(r.Context(), id, filename)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "ARTIFACT_NOT_FOUND",
					"Artifact not available for this job", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		io.Copy(w, rc)
	}
}
