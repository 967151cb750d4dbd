package handlers

import (
	"encoding/json"
	"net/http"

	"seniorguard/internal/domain/models"
	"seniorguard/pkg/logger"
)

// maxJSONBody bounds JSON request bodies; text size limits are enforced by the engine
const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondScanError maps an engine error onto a status. Only input validation reaches the client verbatim.
func respondScanError(w http.ResponseWriter, log *logger.Logger, err error) {
	if models.IsInputValidation(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Err(err).Msg("scan failed")
	respondError(w, http.StatusInternalServerError, "scan failed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
