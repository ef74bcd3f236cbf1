package main

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wricardo/battleship-server/game/engine"
)

const (
	maxShipTries  = 200
	maxFleetTries = 50
)

// RandomFleet places every ship of fleet on a width x height board at a
// random legal position. Longer ships go first.
func RandomFleet(rng *rand.Rand, width, height int, fleet []engine.ShipSpec) ([]engine.ShipPlacement, error) {
	order := make([]engine.ShipSpec, len(fleet))
	copy(order, fleet)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Length > order[j].Length })

	for attempt := 0; attempt < maxFleetTries; attempt++ {
		if placements, ok := tryFleet(rng, width, height, order); ok {
			return placements, nil
		}
	}
	return nil, fmt.Errorf("could not fit fleet of %d ships on %dx%d board", len(fleet), width, height)
}

func tryFleet(rng *rand.Rand, width, height int, fleet []engine.ShipSpec) ([]engine.ShipPlacement, bool) {
	occupied := make(map[engine.Coordinate]bool)
	placements := make([]engine.ShipPlacement, 0, len(fleet))

	for _, ship := range fleet {
		coords, ok := placeShip(rng, width, height, ship.Length, occupied)
		if !ok {
			return nil, false
		}
		for _, c := range coords {
			occupied[c] = true
		}
		placements = append(placements, engine.ShipPlacement{Ship: ship.Name, Coordinates: coords})
	}
	return placements, true
}

func placeShip(rng *rand.Rand, width, height, length int, occupied map[engine.Coordinate]bool) ([]engine.Coordinate, bool) {
	for try := 0; try < maxShipTries; try++ {
		horizontal := rng.Intn(2) == 0
		maxX, maxY := width-length, height-1
		if !horizontal {
			maxX, maxY = width-1, height-length
		}
		if maxX < 0 || maxY < 0 {
			// does not fit this way round
			continue
		}

		start := engine.Coordinate{X: rng.Intn(maxX + 1), Y: rng.Intn(maxY + 1)}
		coords := make([]engine.Coordinate, 0, length)
		for i := 0; i < length; i++ {
			c := start
			if horizontal {
				c.X += i
			} else {
				c.Y += i
			}
			if occupied[c] {
				coords = nil
				break
			}
			coords = append(coords, c)
		}
		if coords != nil {
			return coords, true
		}
	}
	return nil, false
}

// Targeter picks the next cell to attack from the masked opponent board.
//
// Hunt mode fires at a checkerboard of unknown cells. Once something is hit
// it switches to target mode: unknown neighbours of hits, preferring those
// that continue a line of two or more hits.
type Targeter struct {
	rng     *rand.Rand
	skipped map[engine.Coordinate]bool
}

func NewTargeter(rng *rand.Rand) *Targeter {
	return &Targeter{rng: rng, skipped: make(map[engine.Coordinate]bool)}
}

// Skip excludes c from future picks, e.g. after the server rejected it.
func (t *Targeter) Skip(c engine.Coordinate) {
	t.skipped[c] = true
}

// Next returns the next target, or false when no unknown cell is left.
func (t *Targeter) Next(board [][]engine.Cell) (engine.Coordinate, bool) {
	unknown := func(c engine.Coordinate) bool {
		if c.Y < 0 || c.Y >= len(board) || c.X < 0 || c.X >= len(board[c.Y]) {
			return false
		}
		return board[c.Y][c.X] == engine.Empty && !t.skipped[c]
	}
	hit := func(c engine.Coordinate) bool {
		return c.Y >= 0 && c.Y < len(board) && c.X >= 0 && c.X < len(board[c.Y]) && board[c.Y][c.X] == engine.Hit
	}

	var inLine, adjacent, parity, rest []engine.Coordinate
	seen := make(map[engine.Coordinate]bool)

	for y := range board {
		for x := range board[y] {
			c := engine.Coordinate{X: x, Y: y}
			if board[y][x] == engine.Hit {
				for _, d := range directions {
					n := engine.Coordinate{X: x + d.X, Y: y + d.Y}
					if !unknown(n) || seen[n] {
						continue
					}
					seen[n] = true
					// n continues the line through c when the cell behind c is a hit too
					if hit(engine.Coordinate{X: x - d.X, Y: y - d.Y}) {
						inLine = append(inLine, n)
					} else {
						adjacent = append(adjacent, n)
					}
				}
				continue
			}
			if !unknown(c) {
				continue
			}
			if (x+y)%2 == 0 {
				parity = append(parity, c)
			} else {
				rest = append(rest, c)
			}
		}
	}

	for _, candidates := range [][]engine.Coordinate{inLine, adjacent, parity, rest} {
		if len(candidates) > 0 {
			return candidates[t.rng.Intn(len(candidates))], true
		}
	}
	return engine.Coordinate{}, false
}

var directions = []engine.Coordinate{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
