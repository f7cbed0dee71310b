package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docminer/docminer/internal/api/response"
	"github.com/docminer/docminer/internal/pipeline"
	"github.com/google/uuid"
)

// allowedExtensions are the upload formats the pipeline knows how to read.
var allowedExtensions = map[string]bool{
	".txt":  true,
	".xml":  true,
	".html": true,
	".pdf":  true,
	".docx": true,
}

type uploadedFileResponse struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
}

// NewUploadHandler returns an http.HandlerFunc for POST /api/v1/upload. Files
// are stored under uploadDir as "<uuid>_<sanitized original name>"; the
// stored names are what a later analyze request references.
func NewUploadHandler(uploadDir string, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Expected multipart form data within the size limit", nil)
			return
		}

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "No files provided", nil)
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		var stored []uploadedFileResponse
		for _, fh := range files {
			ext := strings.ToLower(filepath.Ext(fh.Filename))
			if !allowedExtensions[ext] {
				response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT",
					"Unsupported file type: "+ext, nil)
				return
			}

			name := uuid.NewString() + "_" + pipeline.SanitizeFilename(fh.Filename)
			if err := saveUpload(fh, filepath.Join(uploadDir, name)); err != nil {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
				return
			}
			stored = append(stored, uploadedFileResponse{
				OriginalName: fh.Filename,
				StoredName:   name,
			})
		}

		response.Created(w, stored)
	}
}

func saveUpload(fh *multipart.FileHeader, dest string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, src)
	return err
}

// originalName recovers the client filename from a stored name by stripping
// the uuid prefix the upload handler added.
func originalName(stored string) string {
	if i := strings.Index(stored, "_"); i > 0 {
		if _, err := uuid.Parse(stored[:i]); err == nil {
			return stored[i+1:]
		}
	}
	return stored
}
