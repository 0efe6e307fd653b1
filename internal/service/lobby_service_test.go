package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freeeve/palmietopia/server/internal/protocol"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

func TestCreateLobby(t *testing.T) {
	_, lobbies, h, store := newTestServices(time.Hour)
	ctx := context.Background()

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lobby.HostID != "host-1" {
		t.Errorf("expected host-1 as host, got %s", lobby.HostID)
	}
	if len(lobby.Players) != 1 || lobby.Players[0].Color != conquest.Red {
		t.Errorf("expected host in seat 0 with Red, got %+v", lobby.Players)
	}
	if lobby.Status != conquest.LobbyWaiting {
		t.Errorf("expected Waiting, got %s", lobby.Status)
	}

	saved, err := store.GetLobby(ctx, lobby.ID)
	if err != nil || saved == nil {
		t.Fatalf("expected persisted lobby, got %v/%v", saved, err)
	}
	if _, ok := h.Get(lobby.ID); !ok {
		t.Error("expected a broadcast channel for the new lobby")
	}
}

func TestJoinLobbyAssignsSeatColor(t *testing.T) {
	_, lobbies, h, _ := newTestServices(time.Hour)
	ctx := context.Background()

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ch := h.GetOrCreate(lobby.ID)
	sub := make(chan []byte, 16)
	ch.Subscribe(sub)

	joined, err := lobbies.Join(ctx, lobby.ID, "p-2", "Bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(joined.Players) != 2 || joined.Players[1].Color != conquest.Blue {
		t.Errorf("expected Bob in seat 1 with Blue, got %+v", joined.Players)
	}

	ev := waitEvent(t, sub, protocol.EventLobbyUpdated)
	room := ev["lobby"].(map[string]any)
	if players := room["players"].([]any); len(players) != 2 {
		t.Errorf("expected 2 players in broadcast, got %d", len(players))
	}
}

func TestJoinLobbyRejections(t *testing.T) {
	_, lobbies, _, store := newTestServices(time.Hour)
	ctx := context.Background()

	if _, err := lobbies.Join(ctx, "ghost", "p-1", "Bob"); !errors.Is(err, ErrLobbyNotFound) {
		t.Errorf("expected ErrLobbyNotFound, got %v", err)
	}

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "host-1", "Alice"); !errors.Is(err, ErrAlreadyInLobby) {
		t.Errorf("expected ErrAlreadyInLobby, got %v", err)
	}

	for i := 2; i <= 5; i++ {
		if _, err := lobbies.Join(ctx, lobby.ID, fmt.Sprintf("p-%d", i), "x"); err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "p-6", "x"); !errors.Is(err, ErrCannotJoin) {
		t.Errorf("expected ErrCannotJoin when full, got %v", err)
	}

	// A lobby that already started is closed too.
	full, _ := store.GetLobby(ctx, lobby.ID)
	full.Status = conquest.LobbyInGame
	if err := store.UpdateLobby(ctx, full); err != nil {
		t.Fatalf("UpdateLobby: %v", err)
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "p-7", "x"); !errors.Is(err, ErrCannotJoin) {
		t.Errorf("expected ErrCannotJoin when in game, got %v", err)
	}
}

func TestLeaveLobbyMigratesHost(t *testing.T) {
	_, lobbies, h, store := newTestServices(time.Hour)
	ctx := context.Background()

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "p-2", "Bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "p-3", "Cleo"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	ch := h.GetOrCreate(lobby.ID)
	sub := make(chan []byte, 16)
	ch.Subscribe(sub)

	if err := lobbies.Leave(ctx, lobby.ID, "host-1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	ev := waitEvent(t, sub, protocol.EventLobbyUpdated)
	room := ev["lobby"].(map[string]any)
	if room["host_id"] != "p-2" {
		t.Errorf("expected host migration to p-2, got %v", room["host_id"])
	}
	left := waitEvent(t, sub, protocol.EventPlayerLeft)
	if left["player_id"] != "host-1" {
		t.Errorf("expected PlayerLeft for host-1, got %v", left["player_id"])
	}

	saved, _ := store.GetLobby(ctx, lobby.ID)
	if saved.HostID != "p-2" || len(saved.Players) != 2 {
		t.Errorf("unexpected persisted lobby: %+v", saved)
	}
}

func TestLeaveLastPlayerDeletesLobby(t *testing.T) {
	_, lobbies, h, store := newTestServices(time.Hour)
	ctx := context.Background()

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := lobbies.Leave(ctx, lobby.ID, "host-1"); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	saved, err := store.GetLobby(ctx, lobby.ID)
	if err != nil || saved != nil {
		t.Errorf("expected lobby deleted, got %v/%v", saved, err)
	}
	if _, ok := h.Get(lobby.ID); ok {
		t.Error("expected channel removed with the lobby")
	}

	// Leaving again is a no-op, not an error.
	if err := lobbies.Leave(ctx, lobby.ID, "host-1"); err != nil {
		t.Errorf("expected silent no-op, got %v", err)
	}
}

func TestStartGameFromLobby(t *testing.T) {
	games, lobbies, h, store := newTestServices(time.Hour)
	ctx := context.Background()

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Tiny)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := lobbies.Join(ctx, lobby.ID, "p-2", "Bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	ch := h.GetOrCreate(lobby.ID)
	sub := make(chan []byte, 16)
	ch.Subscribe(sub)

	game, err := lobbies.Start(ctx, lobby.ID, "host-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if game.ID != lobby.ID {
		t.Errorf("session should keep the lobby id, got %s", game.ID)
	}
	if len(game.Players) != 2 || game.Status != conquest.InProgress {
		t.Errorf("unexpected opening state: %+v", game)
	}
	if game.TurnStartedAtMS == 0 {
		t.Error("expected the first turn to be stamped")
	}

	ev := waitEvent(t, sub, protocol.EventGameStarted)
	opening := ev["game"].(map[string]any)
	if opening["id"] != lobby.ID {
		t.Errorf("expected broadcast of the new session, got %v", opening["id"])
	}

	if games.ActiveCount() != 1 {
		t.Errorf("expected one live session, got %d", games.ActiveCount())
	}
	savedLobby, _ := store.GetLobby(ctx, lobby.ID)
	if savedLobby.Status != conquest.LobbyInGame {
		t.Errorf("expected lobby marked InGame, got %s", savedLobby.Status)
	}
	savedGame, _ := store.LoadGame(ctx, lobby.ID)
	if savedGame == nil {
		t.Error("expected opening checkpoint in the store")
	}
}

func TestStartGameRejections(t *testing.T) {
	_, lobbies, _, _ := newTestServices(time.Hour)
	ctx := context.Background()

	if _, err := lobbies.Start(ctx, "ghost", "host-1"); !errors.Is(err, ErrLobbyNotFound) {
		t.Errorf("expected ErrLobbyNotFound, got %v", err)
	}

	lobby, err := lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := lobbies.Start(ctx, lobby.ID, "host-1"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}

	if _, err := lobbies.Join(ctx, lobby.ID, "p-2", "Bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := lobbies.Start(ctx, lobby.ID, "p-2"); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}
}

func TestListOpenFiltersStartedLobbies(t *testing.T) {
	_, lobbies, _, _ := newTestServices(time.Hour)
	ctx := context.Background()

	a, err := lobbies.Create(ctx, "host-a", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := lobbies.Create(ctx, "host-b", "Bob", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := lobbies.Join(ctx, b.ID, "p-2", "Cleo"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := lobbies.Start(ctx, b.ID, "host-b"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	open, err := lobbies.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 1 || open[0].ID != a.ID {
		t.Errorf("expected only the waiting lobby, got %+v", open)
	}
}
