package handler

import (
	"net/http"

	"chronicle/internal/httputil"
	"chronicle/internal/storyline"
)

// StorylineHandler serves the static storyline catalog
type StorylineHandler struct {
	catalog *storyline.Catalog
}

// NewStorylineHandler creates a new storyline handler
func NewStorylineHandler(catalog *storyline.Catalog) *StorylineHandler {
	return &StorylineHandler{catalog: catalog}
}

// ListStorylines retrieves the full catalog
// GET /storylines
func (h *StorylineHandler) ListStorylines(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.All())
}

// GetStoryline retrieves one storyline by ID
// GET /storylines/{id}
func (h *StorylineHandler) GetStoryline(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Storyline ID")
	if !ok {
		return
	}

	sl := h.catalog.Find(id)
	if sl == nil {
		httputil.RespondError(w, http.StatusNotFound, "storyline not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sl)
}
