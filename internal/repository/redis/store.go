package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Key patterns for stored records.
func lobbyKey(id string) string { return "lobby:" + id }
func gameKey(id string) string  { return "game:" + id }

// gameTTL bounds how long an abandoned session checkpoint lingers.
// Lobbies are deleted explicitly and carry no TTL.
const gameTTL = 24 * time.Hour

// Store persists lobbies and session checkpoints as JSON values.
type Store struct {
	c *Client
}

// NewStore creates a Store on top of a connected client.
func NewStore(c *Client) *Store {
	return &Store{c: c}
}

// CreateLobby inserts a new lobby.
func (s *Store) CreateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return fmt.Errorf("marshal lobby: %w", err)
	}
	ok, err := s.c.rdb.SetNX(ctx, lobbyKey(lobby.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create lobby: %w", err)
	}
	if !ok {
		return repository.ErrAlreadyExists
	}
	return nil
}

// GetLobby returns a lobby by id.
func (s *Store) GetLobby(ctx context.Context, id string) (*conquest.Lobby, error) {
	data, err := s.c.rdb.Get(ctx, lobbyKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lobby: %w", err)
	}

	var lobby conquest.Lobby
	if err := json.Unmarshal(data, &lobby); err != nil {
		return nil, fmt.Errorf("unmarshal lobby: %w", err)
	}
	return &lobby, nil
}

// ListLobbies returns every stored lobby.
func (s *Store) ListLobbies(ctx context.Context) ([]*conquest.Lobby, error) {
	lobbies := make([]*conquest.Lobby, 0)

	iter := s.c.rdb.Scan(ctx, 0, lobbyKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.c.rdb.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get lobby %s: %w", iter.Val(), err)
		}
		var lobby conquest.Lobby
		if err := json.Unmarshal(data, &lobby); err != nil {
			return nil, fmt.Errorf("unmarshal lobby %s: %w", iter.Val(), err)
		}
		lobbies = append(lobbies, &lobby)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan lobbies: %w", err)
	}
	return lobbies, nil
}

// UpdateLobby upserts a lobby.
func (s *Store) UpdateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return fmt.Errorf("marshal lobby: %w", err)
	}
	if err := s.c.rdb.Set(ctx, lobbyKey(lobby.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("update lobby: %w", err)
	}
	return nil
}

// DeleteLobby removes a lobby. Deleting a missing lobby is not an error.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	if err := s.c.rdb.Del(ctx, lobbyKey(id)).Err(); err != nil {
		return fmt.Errorf("delete lobby: %w", err)
	}
	return nil
}

// SaveGame upserts a session checkpoint and refreshes its TTL.
func (s *Store) SaveGame(ctx context.Context, game *conquest.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	if err := s.c.rdb.Set(ctx, gameKey(game.ID), data, gameTTL).Err(); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// LoadGame returns a session checkpoint by id.
func (s *Store) LoadGame(ctx context.Context, id string) (*conquest.Game, error) {
	data, err := s.c.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	var game conquest.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &game, nil
}
