package handler

import (
	"context"
	"net/http"

	"github.com/docminer/docminer/internal/api/response"
	"github.com/docminer/docminer/internal/dict"
)

// Pinger is anything with a health probe (job store, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. The
// service reports healthy as long as the job store answers; the cache is
// best-effort and only reflected in the component list.
func NewHealthHandler(st, ca Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]string{}

		storeState := "ok"
		if err := st.Ping(r.Context()); err != nil {
			storeState = "unavailable"
		}
		components["store"] = storeState

		if ca != nil {
			cacheState := "ok"
			if err := ca.Ping(r.Context()); err != nil {
				cacheState = "unavailable"
			}
			components["cache"] = cacheState
		}

		if storeState != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY",
				"Job store is not reachable", components)
			return
		}
		response.JSON(w, map[string]any{"status": "ok", "components": components})
	}
}

type listItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// sectionIDs are the document section codes a submission may filter on.
var sectionIDs = []string{
	"ALL", "ACK", "AFF", "AUT", "CON", "DIS", "ETH",
	"FIG", "INT", "KEY", "MET", "RES", "TAB", "TIL",
}

// entityIDs are the entity labels a submission may filter on.
var entityIDs = []string{"ALL", "GPE", "LANGUAGE", "ORG", "PERSON"}

// NewListSectionsHandler returns an http.HandlerFunc for GET /api/v1/sections.
func NewListSectionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, toListItems(sectionIDs))
	}
}

// NewListEntitiesHandler returns an http.HandlerFunc for GET /api/v1/entities.
func NewListEntitiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, toListItems(entityIDs))
	}
}

// NewListDictionariesHandler returns an http.HandlerFunc for
// GET /api/v1/dictionaries, enumerating the dictionaries under dictDir.
func NewListDictionariesHandler(dictDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ids, err := dict.List(dictDir)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not list dictionaries", nil)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		response.JSON(w, toListItems(ids))
	}
}

func toListItems(ids []string) []listItem {
	items := make([]listItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, listItem{ID: id, Name: id})
	}
	return items
}
