// Package memory is the zero-dependency Store backend used by default
// and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Store keeps lobbies and session checkpoints in process memory.
type Store struct {
	mu      sync.RWMutex
	lobbies map[string]*conquest.Lobby
	games   map[string]*conquest.Game
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		lobbies: make(map[string]*conquest.Lobby),
		games:   make(map[string]*conquest.Game),
	}
}

func (s *Store) CreateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[lobby.ID]; ok {
		return repository.ErrAlreadyExists
	}
	s.lobbies[lobby.ID] = lobby.Clone()
	return nil
}

func (s *Store) GetLobby(ctx context.Context, id string) (*conquest.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return nil, nil
	}
	return lobby.Clone(), nil
}

func (s *Store) ListLobbies(ctx context.Context) ([]*conquest.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobbies := make([]*conquest.Lobby, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		lobbies = append(lobbies, lobby.Clone())
	}
	return lobbies, nil
}

func (s *Store) UpdateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.ID] = lobby.Clone()
	return nil
}

func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
	return nil
}

func (s *Store) SaveGame(ctx context.Context, game *conquest.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *Store) LoadGame(ctx context.Context, id string) (*conquest.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, nil
	}
	return game.Clone(), nil
}
