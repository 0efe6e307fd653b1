package handler

import (
	"encoding/json"
	"net/http"

	"github.com/freeeve/palmietopia/server/internal/logger"
)

// errorBody is the JSON shape of every non-2xx API response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. Encode failures are past
// the point of recovery for the response, so they are only logged.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		lg := logger.ForRequest(r.Context())
		lg.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError sends the standard error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}
