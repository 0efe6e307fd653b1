package handler

import (
	"net/http"

	"github.com/freeeve/palmietopia/server/internal/logger"
	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/internal/service"
)

// HTTPHandler serves the read-only side of the API: health, open
// lobbies and persisted game snapshots. All gameplay goes over the
// WebSocket.
type HTTPHandler struct {
	lobbies *service.LobbyService
	store   repository.Store
}

// NewHTTPHandler creates an HTTPHandler.
func NewHTTPHandler(lobbies *service.LobbyService, store repository.Store) *HTTPHandler {
	return &HTTPHandler{lobbies: lobbies, store: store}
}

// Health handles GET /health
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ListLobbies handles GET /api/lobbies
func (h *HTTPHandler) ListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.lobbies.ListOpen(r.Context())
	if err != nil {
		lg := logger.ForRequest(r.Context())
		lg.Error().Err(err).Msg("Failed to list lobbies")
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, lobbies)
}

// GetGame handles GET /api/games/{id}
//
// Serves the last checkpoint, not the live session, so it works for
// finished games too.
func (h *HTTPHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.store.LoadGame(r.Context(), gameID)
	if err != nil {
		lg := logger.ForRequest(r.Context())
		lg.Error().Err(err).Str("gameId", gameID).Msg("Failed to load game")
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if game == nil {
		writeError(w, r, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, r, http.StatusOK, game)
}
