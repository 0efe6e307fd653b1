package repository

import (
	"context"
	"errors"

	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// ErrAlreadyExists is returned by CreateLobby when the id is taken.
var ErrAlreadyExists = errors.New("already exists")

// Store persists lobbies and session checkpoints. Lookups return
// (nil, nil) when the id is unknown. CreateLobby fails with
// ErrAlreadyExists on a duplicate id; UpdateLobby, SaveGame and
// DeleteLobby are upserts and idempotent deletes. Implementations
// return detached copies that the caller may mutate freely.
type Store interface {
	CreateLobby(ctx context.Context, lobby *conquest.Lobby) error
	GetLobby(ctx context.Context, id string) (*conquest.Lobby, error)
	ListLobbies(ctx context.Context) ([]*conquest.Lobby, error)
	UpdateLobby(ctx context.Context, lobby *conquest.Lobby) error
	DeleteLobby(ctx context.Context, id string) error
	SaveGame(ctx context.Context, game *conquest.Game) error
	LoadGame(ctx context.Context, id string) (*conquest.Game, error)
}
