package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/protocol"
	"github.com/freeeve/palmietopia/server/internal/service"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// dispatch decodes one inbound frame and routes it. The return value,
// if non-nil, is the direct reply for this client; rule rejections come
// back as Error events, never as dropped frames. Broadcast fan-out
// happens inside the services.
func (h *WSHandler) dispatch(c *client, raw []byte) any {
	cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		return protocol.NewError(fmt.Sprintf("Invalid message format: %v", err))
	}

	ctx := context.Background()

	switch cmd.Type {
	case protocol.CmdListLobbies:
		open, err := h.lobbies.ListOpen(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list lobbies")
			open = make([]*conquest.Lobby, 0)
		}
		return protocol.NewLobbyList(open)

	case protocol.CmdCreateLobby:
		if c.lobbyID != "" {
			return protocol.NewError("Already in a lobby. Leave first before creating a new one.")
		}
		m := cmd.CreateLobby
		lobby, err := h.lobbies.Create(ctx, c.playerID, m.PlayerName, m.MapSize)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		ch := h.hub.GetOrCreate(lobby.ID)
		c.subscribe(ch)
		c.lobbyID = lobby.ID
		ch.Publish(protocol.NewLobbyUpdated(lobby))
		return protocol.NewLobbyCreated(lobby.ID, c.playerID)

	case protocol.CmdJoinLobby:
		if c.lobbyID != "" {
			return protocol.NewError("Already in a lobby. Leave first before joining another.")
		}
		m := cmd.JoinLobby
		lobby, err := h.lobbies.Join(ctx, m.LobbyID, c.playerID, m.PlayerName)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		c.subscribe(h.hub.GetOrCreate(lobby.ID))
		c.lobbyID = lobby.ID
		return protocol.NewJoinedLobby(lobby, c.playerID)

	case protocol.CmdLeaveLobby:
		h.leaveCurrentLobby(c)
		return nil

	case protocol.CmdStartGame:
		if c.lobbyID == "" {
			return protocol.NewError("Not in a lobby")
		}
		game, err := h.lobbies.Start(ctx, c.lobbyID, c.playerID)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		c.gameID = game.ID
		return protocol.NewGameStarted(game)

	case protocol.CmdRejoinGame:
		m := cmd.RejoinGame
		game, ok := h.games.Game(m.GameID)
		if !ok {
			return protocol.NewError(service.ErrGameNotFound.Error())
		}
		if game.SeatOf(m.PlayerID) < 0 {
			return protocol.NewError("You are not in this game")
		}
		if ch, ok := h.games.Channel(m.GameID); ok {
			c.subscribe(ch)
			c.gameID = m.GameID
		}
		return protocol.NewGameRejoined(game)

	case protocol.CmdEndTurn:
		m := cmd.EndTurn
		game, err := h.games.EndTurn(ctx, m.GameID, m.PlayerID)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		return protocol.NewTurnChanged(game)

	case protocol.CmdMoveUnit:
		m := cmd.MoveUnit
		out, err := h.games.MoveUnit(ctx, m.GameID, m.PlayerID, m.UnitID, m.ToQ, m.ToR)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		return protocol.NewUnitMoved(m.UnitID, m.ToQ, m.ToR, out.MovementRemaining)

	case protocol.CmdAttackUnit:
		m := cmd.AttackUnit
		out, err := h.games.AttackUnit(ctx, m.GameID, m.PlayerID, m.AttackerID, m.DefenderID)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		return protocol.NewCombatResult(m.AttackerID, m.DefenderID, out)

	case protocol.CmdFortifyUnit:
		m := cmd.FortifyUnit
		newHP, err := h.games.FortifyUnit(ctx, m.GameID, m.PlayerID, m.UnitID)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		return protocol.NewUnitFortified(m.UnitID, newHP)

	case protocol.CmdBuyUnit:
		m := cmd.BuyUnit
		unitType, err := conquest.ParseUnitType(m.UnitType)
		if err != nil {
			return protocol.NewError(fmt.Sprintf("%v: %s", err, m.UnitType))
		}
		unit, gold, err := h.games.BuyUnit(ctx, m.GameID, m.PlayerID, m.CityID, unitType)
		if err != nil {
			return protocol.NewError(err.Error())
		}
		return protocol.NewUnitPurchased(unit, m.CityID, gold)
	}

	return nil
}

// leaveCurrentLobby drops the client's subscription first so it never
// sees its own departure, then removes it from the lobby.
func (h *WSHandler) leaveCurrentLobby(c *client) {
	if c.lobbyID == "" {
		return
	}
	if c.channel != nil {
		c.channel.Unsubscribe(c.send)
		c.channel = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.lobbies.Leave(ctx, c.lobbyID, c.playerID); err != nil {
		log.Error().Err(err).
			Str("lobbyId", c.lobbyID).
			Str("playerId", c.playerID).
			Msg("Failed to leave lobby")
	}
	c.lobbyID = ""
}

// disconnect tears a connection down: leave any lobby, drop any game
// subscription and close the send queue so the write pump exits. Live
// game sessions are untouched; the player can rejoin later.
func (h *WSHandler) disconnect(c *client) {
	h.leaveCurrentLobby(c)
	if c.channel != nil {
		c.channel.Unsubscribe(c.send)
		c.channel = nil
	}
	close(c.send)
}
