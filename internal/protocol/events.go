package protocol

import (
	"slices"

	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Server event discriminators, carried in the "type" field.
const (
	EventLobbyCreated     = "LobbyCreated"
	EventJoinedLobby      = "JoinedLobby"
	EventLobbyUpdated     = "LobbyUpdated"
	EventLobbyList        = "LobbyList"
	EventGameStarted      = "GameStarted"
	EventGameRejoined     = "GameRejoined"
	EventPlayerLeft       = "PlayerLeft"
	EventError            = "Error"
	EventTurnChanged      = "TurnChanged"
	EventTimeTick         = "TimeTick"
	EventUnitMoved        = "UnitMoved"
	EventCombatResult     = "CombatResult"
	EventPlayerEliminated = "PlayerEliminated"
	EventCitiesCaptured   = "CitiesCaptured"
	EventGameOver         = "GameOver"
	EventUnitFortified    = "UnitFortified"
	EventUnitPurchased    = "UnitPurchased"
)

// Events are built through their constructors so the payload is a
// detached snapshot: marshaling later never races with the live
// session, and Type is always filled in.

type LobbyCreated struct {
	Type     string `json:"type"`
	LobbyID  string `json:"lobby_id"`
	PlayerID string `json:"player_id"`
}

func NewLobbyCreated(lobbyID, playerID string) LobbyCreated {
	return LobbyCreated{Type: EventLobbyCreated, LobbyID: lobbyID, PlayerID: playerID}
}

type JoinedLobby struct {
	Type     string          `json:"type"`
	Lobby    *conquest.Lobby `json:"lobby"`
	PlayerID string          `json:"player_id"`
}

func NewJoinedLobby(lobby *conquest.Lobby, playerID string) JoinedLobby {
	return JoinedLobby{Type: EventJoinedLobby, Lobby: lobby.Clone(), PlayerID: playerID}
}

type LobbyUpdated struct {
	Type  string          `json:"type"`
	Lobby *conquest.Lobby `json:"lobby"`
}

func NewLobbyUpdated(lobby *conquest.Lobby) LobbyUpdated {
	return LobbyUpdated{Type: EventLobbyUpdated, Lobby: lobby.Clone()}
}

type LobbyList struct {
	Type    string            `json:"type"`
	Lobbies []*conquest.Lobby `json:"lobbies"`
}

func NewLobbyList(lobbies []*conquest.Lobby) LobbyList {
	return LobbyList{Type: EventLobbyList, Lobbies: lobbies}
}

type GameStarted struct {
	Type string         `json:"type"`
	Game *conquest.Game `json:"game"`
}

func NewGameStarted(game *conquest.Game) GameStarted {
	return GameStarted{Type: EventGameStarted, Game: game.Clone()}
}

type GameRejoined struct {
	Type string         `json:"type"`
	Game *conquest.Game `json:"game"`
}

func NewGameRejoined(game *conquest.Game) GameRejoined {
	return GameRejoined{Type: EventGameRejoined, Game: game.Clone()}
}

type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

func NewPlayerLeft(playerID string) PlayerLeft {
	return PlayerLeft{Type: EventPlayerLeft, PlayerID: playerID}
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

type TurnChanged struct {
	Type          string          `json:"type"`
	CurrentTurn   int             `json:"current_turn"`
	PlayerTimesMS []int64         `json:"player_times_ms"`
	PlayerGold    []int64         `json:"player_gold"`
	Units         []conquest.Unit `json:"units"`
	Cities        []conquest.City `json:"cities"`
}

func NewTurnChanged(game *conquest.Game) TurnChanged {
	return TurnChanged{
		Type:          EventTurnChanged,
		CurrentTurn:   game.CurrentTurn,
		PlayerTimesMS: slices.Clone(game.PlayerTimesMS),
		PlayerGold:    slices.Clone(game.PlayerGold),
		Units:         slices.Clone(game.Units),
		Cities:        slices.Clone(game.Cities),
	}
}

type TimeTick struct {
	Type        string `json:"type"`
	PlayerIndex int    `json:"player_index"`
	RemainingMS int64  `json:"remaining_ms"`
}

func NewTimeTick(playerIndex int, remainingMS int64) TimeTick {
	return TimeTick{Type: EventTimeTick, PlayerIndex: playerIndex, RemainingMS: remainingMS}
}

type UnitMoved struct {
	Type              string `json:"type"`
	UnitID            string `json:"unit_id"`
	ToQ               int    `json:"to_q"`
	ToR               int    `json:"to_r"`
	MovementRemaining int    `json:"movement_remaining"`
}

func NewUnitMoved(unitID string, toQ, toR, movementRemaining int) UnitMoved {
	return UnitMoved{
		Type:              EventUnitMoved,
		UnitID:            unitID,
		ToQ:               toQ,
		ToR:               toR,
		MovementRemaining: movementRemaining,
	}
}

type CombatResult struct {
	Type             string `json:"type"`
	AttackerID       string `json:"attacker_id"`
	DefenderID       string `json:"defender_id"`
	AttackerHP       int    `json:"attacker_hp"`
	DefenderHP       int    `json:"defender_hp"`
	DamageToAttacker int    `json:"damage_to_attacker"`
	DamageToDefender int    `json:"damage_to_defender"`
	AttackerDied     bool   `json:"attacker_died"`
	DefenderDied     bool   `json:"defender_died"`
	AttackerNewQ     *int   `json:"attacker_new_q"`
	AttackerNewR     *int   `json:"attacker_new_r"`
}

func NewCombatResult(attackerID, defenderID string, out conquest.CombatOutcome) CombatResult {
	return CombatResult{
		Type:             EventCombatResult,
		AttackerID:       attackerID,
		DefenderID:       defenderID,
		AttackerHP:       out.AttackerHP,
		DefenderHP:       out.DefenderHP,
		DamageToAttacker: out.DamageToAttacker,
		DamageToDefender: out.DamageToDefender,
		AttackerDied:     out.AttackerDied,
		DefenderDied:     out.DefenderDied,
		AttackerNewQ:     out.AttackerNewQ,
		AttackerNewR:     out.AttackerNewR,
	}
}

type PlayerEliminated struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	ConquererID string `json:"conquerer_id"`
}

func NewPlayerEliminated(playerID, conquererID string) PlayerEliminated {
	return PlayerEliminated{Type: EventPlayerEliminated, PlayerID: playerID, ConquererID: conquererID}
}

type CitiesCaptured struct {
	Type   string          `json:"type"`
	Cities []conquest.City `json:"cities"`
}

func NewCitiesCaptured(cities []conquest.City) CitiesCaptured {
	return CitiesCaptured{Type: EventCitiesCaptured, Cities: slices.Clone(cities)}
}

type GameOver struct {
	Type     string `json:"type"`
	WinnerID string `json:"winner_id"`
}

func NewGameOver(winnerID string) GameOver {
	return GameOver{Type: EventGameOver, WinnerID: winnerID}
}

type UnitFortified struct {
	Type   string `json:"type"`
	UnitID string `json:"unit_id"`
	NewHP  int    `json:"new_hp"`
}

func NewUnitFortified(unitID string, newHP int) UnitFortified {
	return UnitFortified{Type: EventUnitFortified, UnitID: unitID, NewHP: newHP}
}

type UnitPurchased struct {
	Type       string        `json:"type"`
	Unit       conquest.Unit `json:"unit"`
	CityID     string        `json:"city_id"`
	PlayerGold int64         `json:"player_gold"`
}

func NewUnitPurchased(unit conquest.Unit, cityID string, playerGold int64) UnitPurchased {
	return UnitPurchased{Type: EventUnitPurchased, Unit: unit, CityID: cityID, PlayerGold: playerGold}
}
