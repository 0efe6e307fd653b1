package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/hub"
	"github.com/freeeve/palmietopia/server/internal/protocol"
	"github.com/freeeve/palmietopia/server/internal/repository"
	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Session errors. Messages go to clients verbatim.
var (
	ErrGameNotFound = errors.New("Game not found")
	ErrNotYourTurn  = errors.New("Not your turn")
	ErrNotYourUnit  = errors.New("Not your unit")
)

// ActiveGame is one live session: the authoritative state plus the
// broadcast channel its events go out on.
type ActiveGame struct {
	Game    *conquest.Game
	Channel *hub.Channel
}

// GameService owns every live session. Command application is
// serialized under one lock; each session additionally runs a clock
// goroutine that shares the same lock, so the state a command sees is
// always consistent with the clock.
type GameService struct {
	store repository.Store
	hub   *hub.Hub
	tick  time.Duration
	nowMS func() int64

	mu    sync.RWMutex
	games map[string]*ActiveGame
}

// NewGameService creates a session manager. tick is the clock cadence;
// zero or negative selects one second.
func NewGameService(store repository.Store, h *hub.Hub, tick time.Duration) *GameService {
	if tick <= 0 {
		tick = time.Second
	}
	return &GameService{
		store: store,
		hub:   h,
		tick:  tick,
		nowMS: func() int64 { return time.Now().UnixMilli() },
		games: make(map[string]*ActiveGame),
	}
}

// StartGame registers a session, stamps the first turn's clock, saves
// the initial checkpoint and starts the session's clock goroutine. It
// returns a detached snapshot of the stamped state.
func (s *GameService) StartGame(ctx context.Context, game *conquest.Game, channel *hub.Channel) *conquest.Game {
	s.mu.Lock()
	game.TurnStartedAtMS = s.nowMS()
	s.games[game.ID] = &ActiveGame{Game: game, Channel: channel}
	snapshot := game.Clone()
	s.mu.Unlock()

	if err := s.store.SaveGame(ctx, snapshot); err != nil {
		log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to save new game")
	}
	go s.runClock(game.ID)

	log.Info().
		Str("gameId", game.ID).
		Int("players", len(snapshot.Players)).
		Msg("Game started")
	return snapshot
}

// EndTurn passes the turn. Wall-clock time since the turn started is
// charged against the caller's bank, the increment is added back and
// the next surviving seat's units and cities are refreshed.
func (s *GameService) EndTurn(ctx context.Context, gameID, playerID string) (*conquest.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if cur := ag.Game.CurrentPlayer(); cur.ID != playerID {
		return nil, fmt.Errorf("%w (expected %s, got %s)", ErrNotYourTurn, cur.ID, playerID)
	}

	now := s.nowMS()
	ag.Game.EndTurn(max(now-ag.Game.TurnStartedAtMS, 0))
	ag.Game.TurnStartedAtMS = now

	snapshot := ag.Game.Clone()
	ag.Channel.Publish(protocol.NewTurnChanged(ag.Game))
	s.checkpointAsync(snapshot)

	log.Debug().
		Str("gameId", gameID).
		Int("currentTurn", snapshot.CurrentTurn).
		Msg("Turn ended")
	return snapshot, nil
}

// MoveUnit applies one movement step and publishes what it caused:
// always UnitMoved, then the capture chain when the step took a city.
func (s *GameService) MoveUnit(ctx context.Context, gameID, playerID, unitID string, toQ, toR int) (conquest.MoveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return conquest.MoveOutcome{}, ErrGameNotFound
	}
	if ag.Game.CurrentPlayer().ID != playerID {
		return conquest.MoveOutcome{}, ErrNotYourTurn
	}
	unit := ag.Game.UnitByID(unitID)
	if unit == nil {
		return conquest.MoveOutcome{}, conquest.ErrUnitNotFound
	}
	if unit.OwnerID != playerID {
		return conquest.MoveOutcome{}, ErrNotYourUnit
	}

	outcome, err := ag.Game.MoveUnit(unitID, toQ, toR)
	if err != nil {
		return conquest.MoveOutcome{}, err
	}

	ag.Channel.Publish(protocol.NewUnitMoved(unitID, toQ, toR, outcome.MovementRemaining))
	s.publishCaptureChain(ag, playerID, outcome.EliminatedPlayer, outcome.CapturedCity != nil)
	if outcome.CapturedCity != nil {
		s.checkpointAsync(ag.Game.Clone())
	}
	return outcome, nil
}

// AttackUnit resolves one attack and publishes the outcome, plus the
// capture chain when the attacker advanced into a city.
func (s *GameService) AttackUnit(ctx context.Context, gameID, playerID, attackerID, defenderID string) (conquest.CombatOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return conquest.CombatOutcome{}, ErrGameNotFound
	}
	if ag.Game.CurrentPlayer().ID != playerID {
		return conquest.CombatOutcome{}, ErrNotYourTurn
	}
	attacker := ag.Game.UnitByID(attackerID)
	if attacker == nil {
		return conquest.CombatOutcome{}, conquest.ErrAttackerNotFound
	}
	if attacker.OwnerID != playerID {
		return conquest.CombatOutcome{}, ErrNotYourUnit
	}

	outcome, err := ag.Game.ResolveCombat(attackerID, defenderID)
	if err != nil {
		return conquest.CombatOutcome{}, err
	}

	ag.Channel.Publish(protocol.NewCombatResult(attackerID, defenderID, outcome))
	s.publishCaptureChain(ag, playerID, outcome.EliminatedPlayer, outcome.CapturedCity != nil)
	if outcome.CapturedCity != nil {
		s.checkpointAsync(ag.Game.Clone())
	}
	return outcome, nil
}

// FortifyUnit spends a unit's remaining movement on repairs.
func (s *GameService) FortifyUnit(ctx context.Context, gameID, playerID, unitID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return 0, ErrGameNotFound
	}
	if ag.Game.CurrentPlayer().ID != playerID {
		return 0, ErrNotYourTurn
	}
	unit := ag.Game.UnitByID(unitID)
	if unit == nil {
		return 0, conquest.ErrUnitNotFound
	}
	if unit.OwnerID != playerID {
		return 0, ErrNotYourUnit
	}

	newHP, err := ag.Game.FortifyUnit(unitID)
	if err != nil {
		return 0, err
	}

	ag.Channel.Publish(protocol.NewUnitFortified(unitID, newHP))
	return newHP, nil
}

// BuyUnit purchases a unit at one of the caller's cities. It returns
// the new unit and the caller's remaining gold.
func (s *GameService) BuyUnit(ctx context.Context, gameID, playerID, cityID string, unitType conquest.UnitType) (conquest.Unit, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ag, ok := s.games[gameID]
	if !ok {
		return conquest.Unit{}, 0, ErrGameNotFound
	}
	if ag.Game.CurrentPlayer().ID != playerID {
		return conquest.Unit{}, 0, ErrNotYourTurn
	}

	unit, err := ag.Game.BuyUnit(playerID, cityID, unitType)
	if err != nil {
		return conquest.Unit{}, 0, err
	}
	gold := ag.Game.PlayerGold[ag.Game.SeatOf(playerID)]

	ag.Channel.Publish(protocol.NewUnitPurchased(*unit, cityID, gold))
	return *unit, gold, nil
}

// Game returns a detached snapshot of a live session.
func (s *GameService) Game(gameID string) (*conquest.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ag, ok := s.games[gameID]
	if !ok {
		return nil, false
	}
	return ag.Game.Clone(), true
}

// Channel returns the broadcast channel of a live session.
func (s *GameService) Channel(gameID string) (*hub.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ag, ok := s.games[gameID]
	if !ok {
		return nil, false
	}
	return ag.Channel, true
}

// ActiveCount returns the number of live sessions.
func (s *GameService) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// publishCaptureChain publishes the escalation events of a capture in
// order: PlayerEliminated, CitiesCaptured (the full city list, so
// clients repaint ownership in one step), GameOver. Callers must hold
// the lock.
func (s *GameService) publishCaptureChain(ag *ActiveGame, byPlayerID, eliminated string, captured bool) {
	if eliminated != "" {
		ag.Channel.Publish(protocol.NewPlayerEliminated(eliminated, byPlayerID))
		log.Info().
			Str("gameId", ag.Game.ID).
			Str("playerId", eliminated).
			Str("conquererId", byPlayerID).
			Msg("Player eliminated")
	}
	if captured {
		ag.Channel.Publish(protocol.NewCitiesCaptured(ag.Game.Cities))
	}
	if ag.Game.Status == conquest.Victory {
		ag.Channel.Publish(protocol.NewGameOver(ag.Game.WinnerID))
		log.Info().
			Str("gameId", ag.Game.ID).
			Str("winnerId", ag.Game.WinnerID).
			Msg("Game over")
	}
}

// checkpointAsync persists a detached snapshot without holding up the
// caller. The live session stays authoritative; failures are logged
// and the game plays on.
func (s *GameService) checkpointAsync(snapshot *conquest.Game) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.store.SaveGame(ctx, snapshot); err != nil {
			log.Error().Err(err).Str("gameId", snapshot.ID).Msg("Failed to checkpoint game")
		}
	}()
}
