package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, wantStatus, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("GET %s: expected JSON content type, got %q", url, ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: decode body: %v", url, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	getJSON(t, ts.srv.URL+"/health", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body)
	}
}

func TestListLobbiesFiltersToWaiting(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	open, err := ts.lobbies.Create(ctx, "host-1", "Alice", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	closed, err := ts.lobbies.Create(ctx, "host-2", "Bob", conquest.Small)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	closed.Status = conquest.LobbyInGame
	if err := ts.store.UpdateLobby(ctx, closed); err != nil {
		t.Fatalf("UpdateLobby: %v", err)
	}

	var lobbies []conquest.Lobby
	getJSON(t, ts.srv.URL+"/api/lobbies", http.StatusOK, &lobbies)
	if len(lobbies) != 1 {
		t.Fatalf("expected 1 open lobby, got %d", len(lobbies))
	}
	if lobbies[0].ID != open.ID {
		t.Errorf("expected lobby %s, got %s", open.ID, lobbies[0].ID)
	}
}

func TestGetGame(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	game := flatTestGame("p0", "p1")
	if err := ts.store.SaveGame(ctx, game); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	var got conquest.Game
	getJSON(t, ts.srv.URL+"/api/games/game-1", http.StatusOK, &got)
	if got.ID != "game-1" || got.Status != conquest.InProgress {
		t.Errorf("unexpected snapshot: id=%s status=%s", got.ID, got.Status)
	}
	if len(got.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(got.Players))
	}

	var errBody map[string]string
	getJSON(t, ts.srv.URL+"/api/games/ghost", http.StatusNotFound, &errBody)
	if errBody["error"] != "game not found" {
		t.Errorf("unexpected error body: %v", errBody)
	}
}
