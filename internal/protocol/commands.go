package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/freeeve/palmietopia/server/pkg/conquest"
)

// Client command discriminators, carried in the "type" field.
const (
	CmdCreateLobby = "CreateLobby"
	CmdJoinLobby   = "JoinLobby"
	CmdLeaveLobby  = "LeaveLobby"
	CmdStartGame   = "StartGame"
	CmdListLobbies = "ListLobbies"
	CmdEndTurn     = "EndTurn"
	CmdRejoinGame  = "RejoinGame"
	CmdMoveUnit    = "MoveUnit"
	CmdAttackUnit  = "AttackUnit"
	CmdFortifyUnit = "FortifyUnit"
	CmdBuyUnit     = "BuyUnit"
)

type CreateLobbyCommand struct {
	PlayerName string           `json:"player_name"`
	MapSize    conquest.MapSize `json:"map_size"`
}

type JoinLobbyCommand struct {
	LobbyID    string `json:"lobby_id"`
	PlayerName string `json:"player_name"`
}

type EndTurnCommand struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type RejoinGameCommand struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type MoveUnitCommand struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	UnitID   string `json:"unit_id"`
	ToQ      int    `json:"to_q"`
	ToR      int    `json:"to_r"`
}

type AttackUnitCommand struct {
	GameID     string `json:"game_id"`
	PlayerID   string `json:"player_id"`
	AttackerID string `json:"attacker_id"`
	DefenderID string `json:"defender_id"`
}

type FortifyUnitCommand struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	UnitID   string `json:"unit_id"`
}

// BuyUnitCommand carries the unit type as a raw string; the dispatcher
// parses it so an unknown type is a gameplay error, not a decode error.
type BuyUnitCommand struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	CityID   string `json:"city_id"`
	UnitType string `json:"unit_type"`
}

// Command is one decoded client message. Type always holds the
// discriminator; for commands that carry a payload, the matching
// pointer field is non-nil.
type Command struct {
	Type string

	CreateLobby *CreateLobbyCommand
	JoinLobby   *JoinLobbyCommand
	EndTurn     *EndTurnCommand
	RejoinGame  *RejoinGameCommand
	MoveUnit    *MoveUnitCommand
	AttackUnit  *AttackUnitCommand
	FortifyUnit *FortifyUnitCommand
	BuyUnit     *BuyUnitCommand
}

// DecodeCommand parses one inbound frame: the "type" discriminator
// first, then the payload shape it selects.
func DecodeCommand(data []byte) (*Command, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	cmd := &Command{Type: env.Type}
	switch env.Type {
	case CmdLeaveLobby, CmdStartGame, CmdListLobbies:
		return cmd, nil
	case CmdCreateLobby:
		cmd.CreateLobby = &CreateLobbyCommand{}
		if err := json.Unmarshal(data, cmd.CreateLobby); err != nil {
			return nil, err
		}
		if !cmd.CreateLobby.MapSize.Valid() {
			return nil, fmt.Errorf("unknown map size %q", cmd.CreateLobby.MapSize)
		}
		return cmd, nil
	case CmdJoinLobby:
		cmd.JoinLobby = &JoinLobbyCommand{}
		return cmd, json.Unmarshal(data, cmd.JoinLobby)
	case CmdEndTurn:
		cmd.EndTurn = &EndTurnCommand{}
		return cmd, json.Unmarshal(data, cmd.EndTurn)
	case CmdRejoinGame:
		cmd.RejoinGame = &RejoinGameCommand{}
		return cmd, json.Unmarshal(data, cmd.RejoinGame)
	case CmdMoveUnit:
		cmd.MoveUnit = &MoveUnitCommand{}
		return cmd, json.Unmarshal(data, cmd.MoveUnit)
	case CmdAttackUnit:
		cmd.AttackUnit = &AttackUnitCommand{}
		return cmd, json.Unmarshal(data, cmd.AttackUnit)
	case CmdFortifyUnit:
		cmd.FortifyUnit = &FortifyUnitCommand{}
		return cmd, json.Unmarshal(data, cmd.FortifyUnit)
	case CmdBuyUnit:
		cmd.BuyUnit = &BuyUnitCommand{}
		return cmd, json.Unmarshal(data, cmd.BuyUnit)
	default:
		return nil, fmt.Errorf("unknown command type %q", env.Type)
	}
}
