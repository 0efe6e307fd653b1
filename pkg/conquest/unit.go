package conquest

// UnitType identifies a kind of unit. New types extend the stat
// methods below; everything else keys off the type value.
type UnitType string

const (
	Conscript UnitType = "Conscript"
)

// ParseUnitType converts a wire string into a UnitType.
func ParseUnitType(s string) (UnitType, error) {
	switch UnitType(s) {
	case Conscript:
		return Conscript, nil
	default:
		return "", ErrUnknownUnitType
	}
}

// BaseMovement is the movement allowance restored at the start of the
// owner's turn.
func (t UnitType) BaseMovement() int {
	switch t {
	default:
		return 2
	}
}

// Stats returns (maxHP, attack, defense) for the type.
func (t UnitType) Stats() (int, int, int) {
	switch t {
	default:
		return 50, 25, 15
	}
}

// Cost is the gold price to produce one unit of the type.
func (t UnitType) Cost() int64 {
	switch t {
	default:
		return 25
	}
}

// Unit is a single piece on the board. At most one unit occupies a tile.
type Unit struct {
	ID                string   `json:"id"`
	OwnerID           string   `json:"owner_id"`
	UnitType          UnitType `json:"unit_type"`
	Q                 int      `json:"q"`
	R                 int      `json:"r"`
	MovementRemaining int      `json:"movement_remaining"`
	HP                int      `json:"hp"`
	MaxHP             int      `json:"max_hp"`
}

// NewUnit creates a unit at full health with full movement.
func NewUnit(id, ownerID string, unitType UnitType, q, r int) Unit {
	maxHP, _, _ := unitType.Stats()
	return Unit{
		ID:                id,
		OwnerID:           ownerID,
		UnitType:          unitType,
		Q:                 q,
		R:                 r,
		MovementRemaining: unitType.BaseMovement(),
		HP:                maxHP,
		MaxHP:             maxHP,
	}
}

// Attack is the unit's attack stat.
func (u *Unit) Attack() int {
	_, atk, _ := u.UnitType.Stats()
	return atk
}

// Defense is the unit's base defense stat, before any garrison bonus.
func (u *Unit) Defense() int {
	_, _, def := u.UnitType.Stats()
	return def
}

// City is a fixed settlement. Capturing a capitol eliminates its owner.
type City struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	Q                int    `json:"q"`
	R                int    `json:"r"`
	Name             string `json:"name"`
	IsCapitol        bool   `json:"is_capitol"`
	ProducedThisTurn bool   `json:"produced_this_turn"`
}
