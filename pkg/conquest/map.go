package conquest

import (
	"crypto/rand"
)

// Terrain is the surface type of a single tile.
type Terrain string

const (
	Grassland Terrain = "Grassland"
	Forest    Terrain = "Forest"
	Mountain  Terrain = "Mountain"
	Water     Terrain = "Water"
	Desert    Terrain = "Desert"
)

var allTerrains = [5]Terrain{Grassland, Forest, Mountain, Water, Desert}

// MovementCost returns the cost to enter a tile of this terrain and
// whether it is passable at all. Water is impassable.
func (t Terrain) MovementCost() (int, bool) {
	switch t {
	case Grassland, Forest, Desert:
		return 1, true
	case Mountain:
		return 2, true
	default:
		return 0, false
	}
}

// MapSize selects the radius of the generated board.
type MapSize string

const (
	Tiny   MapSize = "Tiny"
	Small  MapSize = "Small"
	Medium MapSize = "Medium"
	Large  MapSize = "Large"
	Huge   MapSize = "Huge"
)

// Valid reports whether m is one of the recognized sizes.
func (m MapSize) Valid() bool {
	switch m {
	case Tiny, Small, Medium, Large, Huge:
		return true
	}
	return false
}

// Radius returns the hex radius for this map size.
func (m MapSize) Radius() int {
	switch m {
	case Tiny:
		return 2
	case Small:
		return 4
	case Medium:
		return 6
	case Large:
		return 8
	case Huge:
		return 10
	default:
		return Medium.Radius()
	}
}

// Tile is a single hex with axial coordinates.
type Tile struct {
	Q       int     `json:"q"`
	R       int     `json:"r"`
	Terrain Terrain `json:"terrain"`
}

// Map is the full board: every tile within the given hex radius.
type Map struct {
	Tiles  []Tile `json:"tiles"`
	Radius int    `json:"radius"`
}

// GenerateMap builds a hexagonal board of the given radius with terrain
// drawn uniformly at random per tile. There is no determinism contract
// across runs; the entropy source is crypto/rand.
func GenerateMap(radius int) *Map {
	var count int
	for q := -radius; q <= radius; q++ {
		count += hexRowLen(q, radius)
	}

	buf := make([]byte, count)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; zero bytes
		// degrade to all-Grassland rather than aborting.
		for i := range buf {
			buf[i] = 0
		}
	}

	tiles := make([]Tile, 0, count)
	i := 0
	for q := -radius; q <= radius; q++ {
		r1 := max(-radius, -q-radius)
		r2 := min(radius, -q+radius)
		for r := r1; r <= r2; r++ {
			tiles = append(tiles, Tile{Q: q, R: r, Terrain: allTerrains[buf[i]%5]})
			i++
		}
	}
	return &Map{Tiles: tiles, Radius: radius}
}

func hexRowLen(q, radius int) int {
	r1 := max(-radius, -q-radius)
	r2 := min(radius, -q+radius)
	return r2 - r1 + 1
}

// TerrainAt returns the terrain at (q, r) and whether the tile exists.
func (m *Map) TerrainAt(q, r int) (Terrain, bool) {
	for i := range m.Tiles {
		if m.Tiles[i].Q == q && m.Tiles[i].R == r {
			return m.Tiles[i].Terrain, true
		}
	}
	return "", false
}

// HexDistance is the axial hex distance between (q1, r1) and (q2, r2).
func HexDistance(q1, r1, q2, r2 int) int {
	return (abs(q1-q2) + abs(r1-r2) + abs(q1+r1-q2-r2)) / 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
