package engine

import "fmt"

// Cell is the marker stored for a single board coordinate.
type Cell int

const (
	Empty Cell = iota
	Ship
	Hit
	Miss
)

// Validation constants
const (
	MinGridSize   = 1
	MaxGridSize   = 26
	MaxFleetSize  = 16
	OutboxBufSize = 256
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Ship:
		return "ship"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return fmt.Sprintf("cell(%d)", int(c))
	}
}

// Coordinate identifies a grid cell
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// PlayerID is the opaque identifier a client supplies when joining.
type PlayerID string

// Board maps coordinates to cell markers. Absent coordinates are empty.
type Board map[Coordinate]Cell

// Clone returns an independent copy of the board.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// At returns the marker at c.
func (b Board) At(c Coordinate) Cell {
	return b[c]
}

// Remaining counts ship segments that have not been hit.
func (b Board) Remaining() int {
	n := 0
	for _, cell := range b {
		if cell == Ship {
			n++
		}
	}
	return n
}

// ShipPlacement is one ship and the cells it occupies
type ShipPlacement struct {
	Ship        string       `json:"ship"`
	Coordinates []Coordinate `json:"coordinates"`
}

// ShipSpec describes one ship of a fleet inventory
type ShipSpec struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

// Ruleset is the board geometry and fleet inventory a room plays with.
type Ruleset struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Fleet       []ShipSpec `json:"fleet"`
}

// InBounds reports whether c lies on the ruleset's grid.
func (r *Ruleset) InBounds(c Coordinate) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < r.Width && c.Y < r.Height
}

// FleetCells is the number of ship segments one complete fleet occupies.
func (r *Ruleset) FleetCells() int {
	total := 0
	for _, s := range r.Fleet {
		total += s.Length
	}
	return total
}

// ClassicRuleset returns the standard 10x10 fleet.
func ClassicRuleset() *Ruleset {
	return &Ruleset{
		Name:        "classic",
		Description: "Standard 10x10 board with five ships",
		Width:       10,
		Height:      10,
		Fleet: []ShipSpec{
			{Name: "carrier", Length: 5},
			{Name: "battleship", Length: 4},
			{Name: "cruiser", Length: 3},
			{Name: "submarine", Length: 3},
			{Name: "destroyer", Length: 2},
		},
	}
}
