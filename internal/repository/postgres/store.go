package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Store persists lobbies and session checkpoints as JSONB documents.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateLobby inserts a new lobby.
func (s *Store) CreateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return fmt.Errorf("marshal lobby: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lobbies (id, data) VALUES ($1, $2)`, lobby.ID, data)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("create lobby: %w", err)
	}
	return nil
}

// GetLobby returns a lobby by id.
func (s *Store) GetLobby(ctx context.Context, id string) (*conquest.Lobby, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM lobbies WHERE id = $1`, id).Scan(&data)
	if err == sql.ErrNoRows {
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

// ListLobbies returns every stored lobby, newest first.
func (s *Store) ListLobbies(ctx context.Context) ([]*conquest.Lobby, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM lobbies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list lobbies: %w", err)
	}
	defer rows.Close()

	lobbies := make([]*conquest.Lobby, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan lobby: %w", err)
		}
		var lobby conquest.Lobby
		if err := json.Unmarshal(data, &lobby); err != nil {
			return nil, fmt.Errorf("unmarshal lobby: %w", err)
		}
		lobbies = append(lobbies, &lobby)
	}
	return lobbies, rows.Err()
}

// UpdateLobby upserts a lobby.
func (s *Store) UpdateLobby(ctx context.Context, lobby *conquest.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return fmt.Errorf("marshal lobby: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lobbies (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		lobby.ID, data)
	if err != nil {
		return fmt.Errorf("update lobby: %w", err)
	}
	return nil
}

// DeleteLobby removes a lobby. Deleting a missing lobby is not an error.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lobbies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lobby: %w", err)
	}
	return nil
}

// SaveGame upserts a session checkpoint.
func (s *Store) SaveGame(ctx context.Context, game *conquest.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		game.ID, data)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// LoadGame returns a session checkpoint by id.
func (s *Store) LoadGame(ctx context.Context, id string) (*conquest.Game, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM games WHERE id = $1`, id).Scan(&data)
	if err == sql.ErrNoRows {
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
