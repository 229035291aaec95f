package handler

import (
	"log/slog"
	"net/http"

	"chronicle/internal/httputil"
	"chronicle/internal/service/session"
)

// SessionHandler handles session HTTP requests
// Handlers only communicate with services, never repositories
type SessionHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateSession creates a new session
// POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chat, err := h.sessions.CreateSession(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chat)
}

// ListSessions retrieves recent sessions
// GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	chats, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chats)
}

// GetSession retrieves a single session
// GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	chat, err := h.sessions.GetSession(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// AppendMessage appends a message to a session
// POST /sessions/{id}/messages
func (h *SessionHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req session.AppendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.sessions.AppendMessage(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// ListMessages retrieves a session's transcript
// GET /sessions/{id}/messages
func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	messages, err := h.sessions.ListMessages(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// CreateImage records an image against a session
// POST /sessions/{id}/images
func (h *SessionHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	var req session.CreateImageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	img, err := h.sessions.CreateImage(r.Context(), chatID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, img)
}

// ListImages retrieves a session's images
// GET /sessions/{id}/images
func (h *SessionHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	images, err := h.sessions.ListImages(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, images)
}
