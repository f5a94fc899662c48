package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// respondWithError writes a JSON error body to the client and logs the
// underlying cause. userMsg is what the client sees; err stays in the
// server logs only.
func respondWithError(w http.ResponseWriter, log *zap.Logger, status int, userMsg string, err error) {
	if err != nil {
		log.Error(userMsg, zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn(userMsg, zap.Int("status", status))
	}
	respondJSON(w, status, map[string]string{"error": userMsg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
