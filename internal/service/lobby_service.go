package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/hub"
	"github.com/freeeve/palmietopia/server/internal/protocol"
	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Lobby errors. Messages go to clients verbatim.
var (
	ErrLobbyNotFound    = errors.New("Lobby not found")
	ErrCannotJoin       = errors.New("Cannot join this lobby")
	ErrAlreadyInLobby   = errors.New("You are already in this lobby")
	ErrNotHost          = errors.New("Only the host can start the game")
	ErrNotEnoughPlayers = errors.New("Need at least 2 players to start")
)

// LobbyService drives the lobby lifecycle from creation through game
// start. The session keeps the lobby's id and broadcast channel, so
// clients carry one subscription across the transition.
type LobbyService struct {
	store      repository.Store
	hub        *hub.Hub
	games      *GameService
	maxPlayers int
	settings   conquest.Settings
}

// NewLobbyService creates a LobbyService. maxPlayers caps new lobbies;
// settings is applied to every game started from one.
func NewLobbyService(store repository.Store, h *hub.Hub, games *GameService, maxPlayers int, settings conquest.Settings) *LobbyService {
	if maxPlayers <= 0 {
		maxPlayers = 5
	}
	return &LobbyService{
		store:      store,
		hub:        h,
		games:      games,
		maxPlayers: maxPlayers,
		settings:   settings,
	}
}

// Create mints a lobby with the caller as host and opens its broadcast
// channel. The caller subscribes before anything is published on it.
func (s *LobbyService) Create(ctx context.Context, hostID, hostName string, mapSize conquest.MapSize) (*conquest.Lobby, error) {
	host := conquest.Player{ID: hostID, Name: hostName, Color: conquest.ColorForSeat(0)}
	lobby := conquest.NewLobby(uuid.NewString(), host, mapSize, s.maxPlayers)

	if err := s.store.CreateLobby(ctx, lobby); err != nil {
		return nil, fmt.Errorf("Failed to create lobby: %w", err)
	}
	s.hub.GetOrCreate(lobby.ID)

	log.Info().
		Str("lobbyId", lobby.ID).
		Str("hostId", hostID).
		Str("mapSize", string(mapSize)).
		Msg("Lobby created")
	return lobby, nil
}

// Join seats a player in a waiting lobby and tells the room.
func (s *LobbyService) Join(ctx context.Context, lobbyID, playerID, playerName string) (*conquest.Lobby, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to join lobby: %w", err)
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	if !lobby.CanJoin() {
		return nil, ErrCannotJoin
	}
	if lobby.HasPlayer(playerID) {
		return nil, ErrAlreadyInLobby
	}

	lobby.Players = append(lobby.Players, conquest.Player{
		ID:    playerID,
		Name:  playerName,
		Color: conquest.ColorForSeat(len(lobby.Players)),
	})
	if err := s.store.UpdateLobby(ctx, lobby); err != nil {
		return nil, fmt.Errorf("Failed to join lobby: %w", err)
	}

	s.hub.GetOrCreate(lobbyID).Publish(protocol.NewLobbyUpdated(lobby))
	log.Info().
		Str("lobbyId", lobbyID).
		Str("playerId", playerID).
		Int("players", len(lobby.Players)).
		Msg("Player joined lobby")
	return lobby, nil
}

// Leave removes a player. An emptied lobby is deleted along with its
// channel; a departing host hands the role to the next seat. Leaving a
// lobby that no longer exists is a no-op.
func (s *LobbyService) Leave(ctx context.Context, lobbyID, playerID string) error {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return fmt.Errorf("Failed to leave lobby: %w", err)
	}
	if lobby == nil {
		return nil
	}

	players := lobby.Players[:0]
	for _, p := range lobby.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	lobby.Players = players

	if len(lobby.Players) == 0 {
		if err := s.store.DeleteLobby(ctx, lobbyID); err != nil {
			return fmt.Errorf("Failed to leave lobby: %w", err)
		}
		s.hub.Remove(lobbyID)
		log.Info().Str("lobbyId", lobbyID).Msg("Lobby emptied and deleted")
		return nil
	}

	if lobby.HostID == playerID {
		lobby.HostID = lobby.Players[0].ID
		log.Info().
			Str("lobbyId", lobbyID).
			Str("hostId", lobby.HostID).
			Msg("Host left, promoted next player")
	}
	if err := s.store.UpdateLobby(ctx, lobby); err != nil {
		return fmt.Errorf("Failed to leave lobby: %w", err)
	}

	ch := s.hub.GetOrCreate(lobbyID)
	ch.Publish(protocol.NewLobbyUpdated(lobby))
	ch.Publish(protocol.NewPlayerLeft(playerID))
	return nil
}

// Start turns a waiting lobby into a live session on the same channel
// and broadcasts the opening state. Only the host may start, and only
// with at least two seats filled.
func (s *LobbyService) Start(ctx context.Context, lobbyID, requesterID string) (*conquest.Game, error) {
	lobby, err := s.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to start game: %w", err)
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	if lobby.HostID != requesterID {
		return nil, ErrNotHost
	}
	if !lobby.CanStart() {
		return nil, ErrNotEnoughPlayers
	}

	lobby.Status = conquest.LobbyInGame
	if err := s.store.UpdateLobby(ctx, lobby); err != nil {
		// The live session is authoritative from here on.
		log.Error().Err(err).Str("lobbyId", lobbyID).Msg("Failed to mark lobby in-game")
	}

	game := conquest.NewGame(lobby, s.settings)
	ch := s.hub.GetOrCreate(lobbyID)
	snapshot := s.games.StartGame(ctx, game, ch)
	ch.Publish(protocol.NewGameStarted(snapshot))
	return snapshot, nil
}

// ListOpen returns the lobbies still accepting players.
func (s *LobbyService) ListOpen(ctx context.Context) ([]*conquest.Lobby, error) {
	all, err := s.store.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]*conquest.Lobby, 0, len(all))
	for _, l := range all {
		if l.Status == conquest.LobbyWaiting {
			open = append(open, l)
		}
	}
	return open, nil
}
