package service

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/protocol"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// runClock drives one session's chess clock. Every tick it publishes
// the current seat's remaining time, and when the bank hits zero it
// ends the turn itself. The goroutine exits once the session is gone
// or decided, cleaning up the map entry and the broadcast channel.
func (s *GameService) runClock(gameID string) {
	log.Info().Str("gameId", gameID).Msg("Clock started")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for range ticker.C {
		if !s.clockTick(gameID) {
			return
		}
	}
}

// clockTick applies a single tick. It returns false once the session
// should stop ticking.
func (s *GameService) clockTick(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return false
	}
	if ag.Game.Status != conquest.InProgress {
		delete(s.games, gameID)
		s.hub.Remove(gameID)
		log.Info().
			Str("gameId", gameID).
			Str("winnerId", ag.Game.WinnerID).
			Msg("Game ended, clock stopped")
		return false
	}

	now := s.nowMS()
	bank := ag.Game.CurrentPlayerTime()
	remaining := max(bank-max(now-ag.Game.TurnStartedAtMS, 0), 0)
	ag.Channel.Publish(protocol.NewTimeTick(ag.Game.CurrentTurn, remaining))

	if remaining == 0 {
		flagged := ag.Game.CurrentTurn
		ag.Game.EndTurn(bank)
		ag.Game.TurnStartedAtMS = now
		ag.Channel.Publish(protocol.NewTurnChanged(ag.Game))
		s.checkpointAsync(ag.Game.Clone())
		log.Info().
			Str("gameId", gameID).
			Int("seat", flagged).
			Int("currentTurn", ag.Game.CurrentTurn).
			Msg("Flag fell, turn ended automatically")
	}
	return true
}
