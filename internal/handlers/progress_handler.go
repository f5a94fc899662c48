package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wordbuilder/internal/models"
	"wordbuilder/internal/service"
)

type ProgressHandler struct {
	progressService *service.ProgressService
	log             *zap.Logger
}

func NewProgressHandler(progressService *service.ProgressService, log *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, log: log}
}

// GetProgress serves the full progress snapshot for a session. Unknown
// sessions get an empty snapshot rather than a 404 so a fresh client can
// always bootstrap from the same call.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := models.ValidateSessionID(sessionID); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid session id", err)
		return
	}

	result, err := h.progressService.GetProgress(sessionID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PostProgress applies a delta update to one session/level pair.
func (h *ProgressHandler) PostProgress(w http.ResponseWriter, r *http.Request) {
	var update models.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.progressService.ApplyUpdate(&update); err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondWithError(w, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to save progress", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetAttempts returns recent word attempts for a session, newest first.
// Optional query params: level (filter) and limit (default 50, capped at
// models.MaxStoredAttempts to match what the store retains).
func (h *ProgressHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := models.ValidateSessionID(sessionID); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "invalid session id", err)
		return
	}

	level := 0
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, h.log, http.StatusBadRequest, "invalid level", err)
			return
		}
		level = parsed
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, h.log, http.StatusBadRequest, "invalid limit", err)
			return
		}
		if parsed > models.MaxStoredAttempts {
			parsed = models.MaxStoredAttempts
		}
		limit = parsed
	}

	attempts, err := h.progressService.GetAttempts(sessionID, level, limit)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, "failed to load attempts", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}
