package conquest

import "testing"

func TestMapSizeRadius(t *testing.T) {
	tests := []struct {
		size   MapSize
		radius int
	}{
		{Tiny, 2},
		{Small, 4},
		{Medium, 6},
		{Large, 8},
		{Huge, 10},
		{MapSize("Bogus"), 6},
	}
	for _, tt := range tests {
		if got := tt.size.Radius(); got != tt.radius {
			t.Errorf("%s: expected radius %d, got %d", tt.size, tt.radius, got)
		}
	}
}

func TestGenerateMapTileCount(t *testing.T) {
	// A hex region of radius R holds 3R^2+3R+1 tiles.
	tests := []struct {
		radius int
		count  int
	}{
		{2, 19},
		{4, 61},
		{6, 127},
		{8, 217},
		{10, 331},
	}
	for _, tt := range tests {
		m := GenerateMap(tt.radius)
		if len(m.Tiles) != tt.count {
			t.Errorf("radius %d: expected %d tiles, got %d", tt.radius, tt.count, len(m.Tiles))
		}
		if m.Radius != tt.radius {
			t.Errorf("expected radius %d, got %d", tt.radius, m.Radius)
		}
	}
}

func TestGenerateMapRegion(t *testing.T) {
	m := GenerateMap(4)
	seen := make(map[[2]int]bool)
	for _, tile := range m.Tiles {
		if HexDistance(0, 0, tile.Q, tile.R) > 4 {
			t.Errorf("tile (%d,%d) outside radius 4", tile.Q, tile.R)
		}
		key := [2]int{tile.Q, tile.R}
		if seen[key] {
			t.Errorf("duplicate tile (%d,%d)", tile.Q, tile.R)
		}
		seen[key] = true

		switch tile.Terrain {
		case Grassland, Forest, Mountain, Water, Desert:
		default:
			t.Errorf("tile (%d,%d) has unknown terrain %q", tile.Q, tile.R, tile.Terrain)
		}
	}
}

func TestTerrainAt(t *testing.T) {
	m := GenerateMap(2)
	if _, ok := m.TerrainAt(0, 0); !ok {
		t.Error("expected terrain at origin")
	}
	if _, ok := m.TerrainAt(2, -2); !ok {
		t.Error("expected terrain at region corner")
	}
	if _, ok := m.TerrainAt(3, 0); ok {
		t.Error("expected no terrain outside the region")
	}
	if _, ok := m.TerrainAt(2, 1); ok {
		t.Error("expected no terrain outside the region")
	}
}

func TestMovementCost(t *testing.T) {
	tests := []struct {
		terrain  Terrain
		cost     int
		passable bool
	}{
		{Grassland, 1, true},
		{Forest, 1, true},
		{Desert, 1, true},
		{Mountain, 2, true},
		{Water, 0, false},
	}
	for _, tt := range tests {
		cost, passable := tt.terrain.MovementCost()
		if passable != tt.passable {
			t.Errorf("%s: expected passable=%v, got %v", tt.terrain, tt.passable, passable)
		}
		if passable && cost != tt.cost {
			t.Errorf("%s: expected cost %d, got %d", tt.terrain, tt.cost, cost)
		}
	}
}

func TestHexDistance(t *testing.T) {
	tests := []struct {
		q1, r1, q2, r2 int
		dist           int
	}{
		{0, 0, 0, 0, 0},
		{0, 0, 1, 0, 1},
		{0, 0, 0, 1, 1},
		{0, 0, 1, -1, 1},
		{0, 0, -1, 1, 1},
		{0, 0, 2, -1, 2},
		{0, 0, -2, 2, 2},
		{1, -2, -1, 1, 3},
		{2, 0, -2, 0, 4},
		{0, 0, 3, -3, 3},
	}
	for _, tt := range tests {
		if got := HexDistance(tt.q1, tt.r1, tt.q2, tt.r2); got != tt.dist {
			t.Errorf("distance (%d,%d)-(%d,%d): expected %d, got %d",
				tt.q1, tt.r1, tt.q2, tt.r2, tt.dist, got)
		}
		// Distance is symmetric.
		if got := HexDistance(tt.q2, tt.r2, tt.q1, tt.r1); got != tt.dist {
			t.Errorf("distance (%d,%d)-(%d,%d): expected %d, got %d",
				tt.q2, tt.r2, tt.q1, tt.r1, tt.dist, got)
		}
	}
}
