package conquest

import "errors"

// Rule violations. The messages are user-facing: the server forwards
// them verbatim to the offending client, so keep them readable.
var (
	ErrUnitNotFound       = errors.New("Unit not found")
	ErrInvalidDestination = errors.New("Invalid destination")
	ErrImpassable         = errors.New("Cannot move to water")
	ErrNotAdjacent        = errors.New("Can only move to adjacent tiles")
	ErrNoMovement         = errors.New("Not enough movement remaining")
	ErrTileOccupied       = errors.New("Tile is occupied")
	ErrAlreadyActed       = errors.New("Cannot fortify after moving")
	ErrPlayerNotFound     = errors.New("Player not found")
	ErrCityNotFound       = errors.New("City not found")
	ErrNotYourCity        = errors.New("Not your city")
	ErrCityProduced       = errors.New("City has already produced this turn")
	ErrCityOccupied       = errors.New("City is occupied by a unit")
	ErrNotEnoughGold      = errors.New("Not enough gold")
	ErrAttackerNotFound   = errors.New("Attacker not found")
	ErrDefenderNotFound   = errors.New("Defender not found")
	ErrAttackNotAdjacent  = errors.New("Units must be adjacent to attack")
	ErrNoAttackMovement   = errors.New("No movement remaining to attack")
	ErrUnknownUnitType    = errors.New("Unknown unit type")
)
