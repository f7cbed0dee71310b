package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/docminer/docminer/internal/api/response"
	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type jobStatusResponse struct {
	JobID       string                `json:"job_id"`
	Kind        string                `json:"kind"`
	Status      string                `json:"status"`
	Progress    int                   `json:"progress"`
	CurrentStep string                `json:"current_step"`
	CreatedAt   string                `json:"created_at"`
	StartedAt   string                `json:"started_at,omitempty"`
	FinishedAt  string                `json:"finished_at,omitempty"`
	Result      *models.ResultSummary `json:"result,omitempty"`
	Error       *models.JobError      `json:"error,omitempty"`
}

// NewPollJobHandler returns an http.HandlerFunc for GET /api/v1/analyze/{jobID}.
func NewPollJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseJobID(w, r)
		if !ok {
			return
		}

		job, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such job", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		resp := jobStatusResponse{
			JobID:       job.ID.String(),
			Kind:        string(job.Kind),
			Status:      string(job.Status),
			Progress:    job.Progress,
			CurrentStep: job.CurrentStep,
			CreatedAt:   job.CreatedAt.UTC().Format(time.RFC3339),
			Result:      job.Result,
			Error:       job.Error,
		}
		if job.StartedAt != nil {
			resp.StartedAt = job.StartedAt.UTC().Format(time.RFC3339)
		}
		if job.FinishedAt != nil {
			resp.FinishedAt = job.FinishedAt.UTC().Format(time.RFC3339)
		}
		response.JSON(w, resp)
	}
}

// NewCancelJobHandler returns an http.HandlerFunc for DELETE /api/v1/analyze/{jobID}.
func NewCancelJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseJobID(w, r)
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such job", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, map[string]string{"job_id": id.String(), "status": "cancelling"})
	}
}

func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job id must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
