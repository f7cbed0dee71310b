package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/docminer/docminer/internal/api/response"
	"github.com/docminer/docminer/internal/jobs"
	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

// JobService defines the job operations the handlers depend on.
type JobService interface {
	Submit(ctx context.Context, kind models.JobKind, params models.JobParams) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	OpenArtifact(ctx context.Context, id uuid.UUID, name string) (io.ReadCloser, error)
}

type analyzeRequest struct {
	Kind         string   `json:"kind"`
	Query        string   `json:"query"`
	Hits         int      `json:"hits"`
	Dictionary   string   `json:"dictionary"`
	Sections     []string `json:"sections"`
	Entities     []string `json:"entities"`
	OutputFormat string   `json:"output_format"`
	Files        []string `json:"files"`
	CorpusDir    string   `json:"corpus_dir"`
}

type analyzeResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// Uploaded files are referenced by the stored names the upload endpoint
// returned; they are resolved against uploadDir here.
func NewAnalyzeHandler(svc JobService, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		kind, err := resolveKind(req)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		params := models.JobParams{
			Query:         req.Query,
			Hits:          req.Hits,
			Dictionary:    req.Dictionary,
			SectionFilter: req.Sections,
			EntityFilter:  req.Entities,
			OutputFormat:  req.OutputFormat,
			CorpusDir:     req.CorpusDir,
		}
		for _, stored := range req.Files {
			// Stored names are flat; anything with a path separator did not
			// come from the upload endpoint.
			if stored == "" || stored != filepath.Base(stored) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid file reference", nil)
				return
			}
			params.Files = append(params.Files, models.UploadedFile{
				OriginalName: originalName(stored),
				StoredPath:   filepath.Join(uploadDir, stored),
			})
		}

		job, err := svc.Submit(r.Context(), kind, params)
		if err != nil {
			switch {
			case errors.Is(err, jobs.ErrInvalidParams):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			case errors.Is(err, jobs.ErrBusy):
				response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL",
					"Too many analyses in progress, try again later", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, analyzeResponse{
			JobID:  job.ID.String(),
			Status: string(job.Status),
		})
	}
}

// resolveKind maps the request to a job kind, inferring it from the payload
// when not given explicitly.
func resolveKind(req analyzeRequest) (models.JobKind, error) {
	switch req.Kind {
	case "download", "upload", "existing":
		return models.JobKind(req.Kind), nil
	case "":
	default:
		return "", errors.New("kind must be download, upload, or existing")
	}

	if len(req.Files) > 0 {
		return models.JobKindUpload, nil
	}
	if req.CorpusDir != "" {
		return models.JobKindExisting, nil
	}
	return models.JobKindDownload, nil
}
