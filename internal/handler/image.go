package handler

import (
	"log/slog"
	"net/http"

	"chronicle/internal/httputil"
	"chronicle/internal/service/scene"
)

// ImageHandler handles on-demand image generation requests
type ImageHandler struct {
	scenes *scene.Service
	logger *slog.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(scenes *scene.Service, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		scenes: scenes,
		logger: logger,
	}
}

// GenerateScene generates a scene image for a session
// POST /sessions/{id}/images/generate
// Gateway failures degrade to a placeholder payload, not an error status.
func (h *ImageHandler) GenerateScene(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req scene.GenerateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.scenes.GenerateScene(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GeneratePortrait generates (or regenerates) the session's character
// portrait, replacing any prior one
// POST /sessions/{id}/images/generate-portrait
func (h *ImageHandler) GeneratePortrait(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req scene.GenerateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.scenes.GeneratePortrait(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
