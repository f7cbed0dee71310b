package api

import (
	"net/http"

	mw "github.com/docminer/docminer/internal/api/middleware"
	"github.com/docminer/docminer/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler           http.HandlerFunc
	UploadHandler           http.HandlerFunc
	AnalyzeHandler          http.HandlerFunc
	PollJobHandler          http.HandlerFunc
	CancelJobHandler        http.HandlerFunc
	DownloadHandler         http.HandlerFunc
	ListDictionariesHandler http.HandlerFunc
	ListSectionsHandler     http.HandlerFunc
	ListEntitiesHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Get("/api/v1/dictionaries", orNotImplemented(deps.ListDictionariesHandler))
	r.Get("/api/v1/sections", orNotImplemented(deps.ListSectionsHandler))
	r.Get("/api/v1/entities", orNotImplemented(deps.ListEntitiesHandler))

	r.Post("/api/v1/upload", orNotImplemented(deps.UploadHandler))
	r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
	r.Get("/api/v1/analyze/{jobID}", orNotImplemented(deps.PollJobHandler))
	r.Delete("/api/v1/analyze/{jobID}", orNotImplemented(deps.CancelJobHandler))
	r.Get("/api/v1/analyze/{jobID}/download/{filename}", orNotImplemented(deps.DownloadHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
