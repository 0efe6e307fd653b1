package conquest

// PlayerColor is the display colour assigned to a seat.
type PlayerColor string

const (
	Red    PlayerColor = "Red"
	Blue   PlayerColor = "Blue"
	Green  PlayerColor = "Green"
	Yellow PlayerColor = "Yellow"
	Purple PlayerColor = "Purple"
)

var palette = [5]PlayerColor{Red, Blue, Green, Yellow, Purple}

// ColorForSeat returns the palette colour for a seat index, cycling
// every five seats.
func ColorForSeat(seat int) PlayerColor {
	return palette[seat%len(palette)]
}

// Player is a participant. The id is an opaque string minted by the
// connection layer; the engine never interprets it.
type Player struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Color PlayerColor `json:"color"`
}

// LobbyStatus is the lifecycle state of a lobby.
type LobbyStatus string

const (
	LobbyWaiting  LobbyStatus = "Waiting"
	LobbyStarting LobbyStatus = "Starting"
	LobbyInGame   LobbyStatus = "InGame"
)

// Lobby is a pre-game room. The host is always one of the players.
type Lobby struct {
	ID         string      `json:"id"`
	HostID     string      `json:"host_id"`
	Players    []Player    `json:"players"`
	MapSize    MapSize     `json:"map_size"`
	MaxPlayers int         `json:"max_players"`
	Status     LobbyStatus `json:"status"`
}

// NewLobby creates a waiting lobby with the host as its only player.
func NewLobby(id string, host Player, mapSize MapSize, maxPlayers int) *Lobby {
	return &Lobby{
		ID:         id,
		HostID:     host.ID,
		Players:    []Player{host},
		MapSize:    mapSize,
		MaxPlayers: maxPlayers,
		Status:     LobbyWaiting,
	}
}

// CanJoin reports whether another player may join.
func (l *Lobby) CanJoin() bool {
	return len(l.Players) < l.MaxPlayers && l.Status == LobbyWaiting
}

// CanStart reports whether the lobby has enough players to start.
func (l *Lobby) CanStart() bool {
	return len(l.Players) >= 2 && l.Status == LobbyWaiting
}

// HasPlayer reports whether the given player id is in the lobby.
func (l *Lobby) HasPlayer(playerID string) bool {
	for i := range l.Players {
		if l.Players[i].ID == playerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Store implementations hand out clones so
// callers can mutate without racing each other.
func (l *Lobby) Clone() *Lobby {
	c := *l
	c.Players = make([]Player, len(l.Players))
	copy(c.Players, l.Players)
	return &c
}
