package conquest

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// Default clock and economy settings.
const (
	DefaultBaseTimeMS   int64 = 120_000
	DefaultIncrementMS  int64 = 45_000
	DefaultStartingGold int64 = 50
	DefaultBaseIncome   int64 = 20
)

// Settings are the tunable clock and economy parameters of a session.
type Settings struct {
	BaseTimeMS   int64
	IncrementMS  int64
	StartingGold int64
	BaseIncome   int64
}

// DefaultSettings returns the standard 2m+45s chess clock with the
// standard economy.
func DefaultSettings() Settings {
	return Settings{
		BaseTimeMS:   DefaultBaseTimeMS,
		IncrementMS:  DefaultIncrementMS,
		StartingGold: DefaultStartingGold,
		BaseIncome:   DefaultBaseIncome,
	}
}

// GameStatus is the lifecycle state of a session.
type GameStatus string

const (
	// InProgress is the only status under which commands are accepted.
	InProgress GameStatus = "InProgress"
	// Victory is terminal; WinnerID names the sole survivor.
	Victory GameStatus = "Victory"
	// Finished is a reserved terminal state for orderly shutdown. The
	// rules never produce it.
	Finished GameStatus = "Finished"
)

// Game is one full session. All fields serialize; the session id is the
// id of the lobby it started from. Parallel slices (PlayerTimesMS,
// PlayerGold) are indexed by seat, the player's position in Players.
// Eliminated players keep their seat so the indices stay stable.
type Game struct {
	ID                string     `json:"id"`
	Map               *Map       `json:"map"`
	Players           []Player   `json:"players"`
	Cities            []City     `json:"cities"`
	Units             []Unit     `json:"units"`
	CurrentTurn       int        `json:"current_turn"`
	Status            GameStatus `json:"status"`
	WinnerID          string     `json:"winner_id,omitempty"`
	EliminatedPlayers []string   `json:"eliminated_players"`
	PlayerTimesMS     []int64    `json:"player_times_ms"`
	PlayerGold        []int64    `json:"player_gold"`
	TurnStartedAtMS   int64      `json:"turn_started_at_ms"`
	BaseTimeMS        int64      `json:"base_time_ms"`
	IncrementMS       int64      `json:"increment_ms"`
	BaseIncome        int64      `json:"base_income"`
}

// NewGame builds a fresh session from a lobby: generated map, one
// capitol city and one Conscript per seat, full clocks, starting gold,
// seat 0 to move. TurnStartedAtMS is left zero; the session manager
// stamps it when the timer starts.
func NewGame(lobby *Lobby, settings Settings) *Game {
	m := GenerateMap(lobby.MapSize.Radius())
	n := len(lobby.Players)

	positions := startingPositions(m, n)

	cities := make([]City, 0, n)
	units := make([]Unit, 0, n)
	for i, p := range lobby.Players {
		if i >= len(positions) {
			break
		}
		q, r := positions[i][0], positions[i][1]
		cities = append(cities, City{
			ID:        fmt.Sprintf("city-%s-%d", p.ID, i),
			OwnerID:   p.ID,
			Q:         q,
			R:         r,
			Name:      fmt.Sprintf("%s's Capital", p.Name),
			IsCapitol: true,
		})
		units = append(units, NewUnit(fmt.Sprintf("unit-%s-0", p.ID), p.ID, Conscript, q, r))
	}

	players := make([]Player, n)
	copy(players, lobby.Players)

	times := make([]int64, n)
	gold := make([]int64, n)
	for i := range n {
		times[i] = settings.BaseTimeMS
		gold[i] = settings.StartingGold
	}

	return &Game{
		ID:                lobby.ID,
		Map:               m,
		Players:           players,
		Cities:            cities,
		Units:             units,
		CurrentTurn:       0,
		Status:            InProgress,
		EliminatedPlayers: make([]string, 0),
		PlayerTimesMS:     times,
		PlayerGold:        gold,
		BaseTimeMS:        settings.BaseTimeMS,
		IncrementMS:       settings.IncrementMS,
		BaseIncome:        settings.BaseIncome,
	}
}

// startingPositions picks one spawn tile per seat. Seats aim at evenly
// spaced sector targets at 0.7R from the origin; each pick is the valid
// (non-Water, non-Mountain) tile closest to its target that keeps a
// minimum separation of max(R/2, 3) from every earlier pick. When the
// separation filter leaves nothing, the first valid tile is used.
func startingPositions(m *Map, playerCount int) [][2]int {
	radius := float64(m.Radius)

	valid := make([]*Tile, 0, len(m.Tiles))
	for i := range m.Tiles {
		if m.Tiles[i].Terrain != Water && m.Tiles[i].Terrain != Mountain {
			valid = append(valid, &m.Tiles[i])
		}
	}

	minSep := m.Radius / 2
	if minSep < 3 {
		minSep = 3
	}

	positions := make([][2]int, 0, playerCount)
	for i := range playerCount {
		angle := 2 * math.Pi * float64(i) / float64(playerCount)
		targetQ := int(math.Cos(angle) * radius * 0.7)
		targetR := int(math.Sin(angle) * radius * 0.7)

		var best *Tile
		bestDist := math.MaxInt
		for _, t := range valid {
			ok := true
			for _, p := range positions {
				if HexDistance(t.Q, t.R, p[0], p[1]) < minSep {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if d := HexDistance(t.Q, t.R, targetQ, targetR); d < bestDist {
				best = t
				bestDist = d
			}
		}

		if best != nil {
			positions = append(positions, [2]int{best.Q, best.R})
		} else if len(valid) > 0 {
			positions = append(positions, [2]int{valid[0].Q, valid[0].R})
		}
	}
	return positions
}

// MoveOutcome reports the result of a successful move.
type MoveOutcome struct {
	MovementRemaining int
	CapturedCity      *City
	EliminatedPlayer  string
}

// CanMove validates a single-tile move and returns its terrain cost.
func (g *Game) CanMove(unitID string, toQ, toR int) (int, error) {
	unit := g.UnitByID(unitID)
	if unit == nil {
		return 0, ErrUnitNotFound
	}

	terrain, ok := g.Map.TerrainAt(toQ, toR)
	if !ok {
		return 0, ErrInvalidDestination
	}

	cost, passable := terrain.MovementCost()
	if !passable {
		return 0, ErrImpassable
	}

	if HexDistance(unit.Q, unit.R, toQ, toR) != 1 {
		return 0, ErrNotAdjacent
	}

	if unit.MovementRemaining < cost {
		return 0, ErrNoMovement
	}

	if g.UnitAt(toQ, toR) != nil {
		return 0, ErrTileOccupied
	}

	return cost, nil
}

// MoveUnit applies a validated move and resolves any city capture on
// the destination tile. On error the session is unchanged.
func (g *Game) MoveUnit(unitID string, toQ, toR int) (MoveOutcome, error) {
	cost, err := g.CanMove(unitID, toQ, toR)
	if err != nil {
		return MoveOutcome{}, err
	}

	unit := g.UnitByID(unitID)
	owner := unit.OwnerID
	unit.Q = toQ
	unit.R = toR
	unit.MovementRemaining -= cost
	remaining := unit.MovementRemaining

	captured, eliminated := g.tryCapture(toQ, toR, owner)

	return MoveOutcome{
		MovementRemaining: remaining,
		CapturedCity:      captured,
		EliminatedPlayer:  eliminated,
	}, nil
}

// tryCapture transfers the city at (q, r) to newOwner, if there is one
// and it belongs to someone else. Taking a capitol eliminates the old
// owner: all their cities transfer (losing capitol standing except the
// one just taken), all their units are removed, and if a single player
// remains the session ends in Victory.
func (g *Game) tryCapture(q, r int, newOwner string) (*City, string) {
	idx := -1
	for i := range g.Cities {
		if g.Cities[i].Q == q && g.Cities[i].R == r {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ""
	}

	oldOwner := g.Cities[idx].OwnerID
	if oldOwner == newOwner {
		return nil, ""
	}

	eliminated := ""
	if g.Cities[idx].IsCapitol {
		eliminated = oldOwner
		g.EliminatedPlayers = append(g.EliminatedPlayers, oldOwner)

		for i := range g.Cities {
			if g.Cities[i].OwnerID != oldOwner {
				continue
			}
			g.Cities[i].OwnerID = newOwner
			if g.Cities[i].IsCapitol && !(g.Cities[i].Q == q && g.Cities[i].R == r) {
				g.Cities[i].IsCapitol = false
			}
		}

		kept := g.Units[:0]
		for _, u := range g.Units {
			if u.OwnerID != oldOwner {
				kept = append(kept, u)
			}
		}
		g.Units = kept

		var survivor *Player
		survivors := 0
		for i := range g.Players {
			if !g.IsEliminated(g.Players[i].ID) {
				survivor = &g.Players[i]
				survivors++
			}
		}
		if survivors == 1 {
			g.Status = Victory
			g.WinnerID = survivor.ID
		}
	} else {
		g.Cities[idx].OwnerID = newOwner
	}

	captured := g.Cities[idx]
	return &captured, eliminated
}

// FortifyUnit trades the unit's whole turn for a quarter-health heal.
// Only a unit that has not acted yet (full movement) may fortify.
func (g *Game) FortifyUnit(unitID string) (int, error) {
	unit := g.UnitByID(unitID)
	if unit == nil {
		return 0, ErrUnitNotFound
	}

	if unit.MovementRemaining < unit.UnitType.BaseMovement() {
		return 0, ErrAlreadyActed
	}

	unit.HP = min(unit.HP+unit.MaxHP/4, unit.MaxHP)
	unit.MovementRemaining = 0
	return unit.HP, nil
}

// BuyUnit produces a unit at one of the player's cities. The city can
// produce once per turn and must be empty; the new unit cannot move
// until the owner's next turn.
func (g *Game) BuyUnit(playerID, cityID string, unitType UnitType) (*Unit, error) {
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return nil, ErrPlayerNotFound
	}

	cityIdx := -1
	for i := range g.Cities {
		if g.Cities[i].ID == cityID {
			cityIdx = i
			break
		}
	}
	if cityIdx < 0 {
		return nil, ErrCityNotFound
	}
	city := &g.Cities[cityIdx]

	if city.OwnerID != playerID {
		return nil, ErrNotYourCity
	}
	if city.ProducedThisTurn {
		return nil, ErrCityProduced
	}
	if g.UnitAt(city.Q, city.R) != nil {
		return nil, ErrCityOccupied
	}

	cost := unitType.Cost()
	if g.PlayerGold[seat] < cost {
		return nil, ErrNotEnoughGold
	}

	g.PlayerGold[seat] -= cost
	city.ProducedThisTurn = true

	unit := NewUnit(newUnitID(playerID), playerID, unitType, city.Q, city.R)
	unit.MovementRemaining = 0
	g.Units = append(g.Units, unit)

	return &g.Units[len(g.Units)-1], nil
}

// newUnitID mints a collision-resistant unit id.
func newUnitID(playerID string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("unit-%s-0", playerID)
	}
	return fmt.Sprintf("unit-%s-%x", playerID, binary.LittleEndian.Uint64(b[:]))
}

// EndTurn closes out the current seat's turn: charge the time used
// (floored at zero) plus the increment, grant income, advance to the
// next living seat, and refresh that seat's movement and production.
func (g *Game) EndTurn(timeUsedMS int64) {
	cur := g.CurrentTurn

	g.PlayerTimesMS[cur] = saturatingSub(g.PlayerTimesMS[cur], timeUsedMS) + g.IncrementMS
	g.PlayerGold[cur] += g.BaseIncome

	for {
		g.CurrentTurn = (g.CurrentTurn + 1) % len(g.Players)
		if !g.IsEliminated(g.Players[g.CurrentTurn].ID) {
			break
		}
		// Wrapped all the way around; victory would normally have
		// ended the session before this could happen.
		if g.CurrentTurn == cur {
			break
		}
	}

	next := g.Players[g.CurrentTurn].ID
	for i := range g.Units {
		if g.Units[i].OwnerID == next {
			g.Units[i].MovementRemaining = g.Units[i].UnitType.BaseMovement()
		}
	}
	for i := range g.Cities {
		if g.Cities[i].OwnerID == next {
			g.Cities[i].ProducedThisTurn = false
		}
	}
}

// CurrentPlayerTime is the remaining bank of the seat to move.
func (g *Game) CurrentPlayerTime() int64 {
	return g.PlayerTimesMS[g.CurrentTurn]
}

// CurrentPlayer is the player whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	return &g.Players[g.CurrentTurn]
}

// SeatOf returns the seat index of a player id, or -1.
func (g *Game) SeatOf(playerID string) int {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// IsEliminated reports whether the player has been knocked out.
func (g *Game) IsEliminated(playerID string) bool {
	for _, id := range g.EliminatedPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// UnitByID returns the unit with the given id, or nil.
func (g *Game) UnitByID(id string) *Unit {
	for i := range g.Units {
		if g.Units[i].ID == id {
			return &g.Units[i]
		}
	}
	return nil
}

// UnitAt returns the unit occupying (q, r), or nil.
func (g *Game) UnitAt(q, r int) *Unit {
	for i := range g.Units {
		if g.Units[i].Q == q && g.Units[i].R == r {
			return &g.Units[i]
		}
	}
	return nil
}

// CityByID returns the city with the given id, or nil.
func (g *Game) CityByID(id string) *City {
	for i := range g.Cities {
		if g.Cities[i].ID == id {
			return &g.Cities[i]
		}
	}
	return nil
}

// CityAt returns the city on (q, r), or nil.
func (g *Game) CityAt(q, r int) *City {
	for i := range g.Cities {
		if g.Cities[i].Q == q && g.Cities[i].R == r {
			return &g.Cities[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Snapshots handed outside the session lock
// must not share slices with the live session.
func (g *Game) Clone() *Game {
	c := *g
	if g.Map != nil {
		m := *g.Map
		m.Tiles = make([]Tile, len(g.Map.Tiles))
		copy(m.Tiles, g.Map.Tiles)
		c.Map = &m
	}
	c.Players = make([]Player, len(g.Players))
	copy(c.Players, g.Players)
	c.Cities = make([]City, len(g.Cities))
	copy(c.Cities, g.Cities)
	c.Units = make([]Unit, len(g.Units))
	copy(c.Units, g.Units)
	c.EliminatedPlayers = make([]string, len(g.EliminatedPlayers))
	copy(c.EliminatedPlayers, g.EliminatedPlayers)
	c.PlayerTimesMS = make([]int64, len(g.PlayerTimesMS))
	copy(c.PlayerTimesMS, g.PlayerTimesMS)
	c.PlayerGold = make([]int64, len(g.PlayerGold))
	copy(c.PlayerGold, g.PlayerGold)
	return &c
}

func saturatingSub(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}
