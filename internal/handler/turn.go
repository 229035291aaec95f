package handler

import (
	"log/slog"
	"net/http"

	"chronicle/internal/httputil"
	"chronicle/internal/service/turn"
)

// TurnHandler handles turn submission, streamed or buffered
type TurnHandler struct {
	orchestrator *turn.Orchestrator
	logger       *slog.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(orchestrator *turn.Orchestrator, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type turnRequest struct {
	turn.Request
	Stream bool `json:"stream"`
}

// SubmitTurn runs one user turn
// POST /turn
// With "stream": true the reply is a chunked text/plain fragment stream;
// otherwise the full turn result is returned as JSON. Upstream failures
// surface as sentinel content with HTTP 200; only validation and an unknown
// session fail the request itself.
func (h *TurnHandler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.Stream {
		result, err := h.orchestrator.SubmitTurn(r.Context(), &req.Request, nil)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, result)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Headers go out with the first fragment, so validation failures below
	// can still produce a proper error status.
	wrote := false
	emit := func(fragment string) error {
		if !wrote {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			wrote = true
		}
		if _, err := w.Write([]byte(fragment)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := h.orchestrator.SubmitTurn(r.Context(), &req.Request, emit)
	if err != nil {
		if !wrote {
			handleError(w, err)
		}
		return
	}

	if result.Failed {
		if wrote {
			// Part of the reply already went out; ending the chunked body
			// now would look like a complete turn. Abort the connection so
			// the client's read fails instead.
			panic(http.ErrAbortHandler)
		}
		// A turn that failed before any fragment answers 200 with the
		// sentinel body.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(result.Assistant.Content))
	}
	flusher.Flush()
}
