package engine

import "sort"

// BuildBoard validates a complete fleet submission against the ruleset and
// returns the resulting board. Any violation rejects the whole submission.
func (e *Engine) BuildBoard(placements []ShipPlacement) (Board, error) {
	if len(placements) != len(e.rules.Fleet) {
		return nil, NewError(KindInvalidPlacement, "expected %d ships, got %d", len(e.rules.Fleet), len(placements))
	}

	board := make(Board, e.rules.FleetCells())
	names := make(map[string]bool, len(placements))
	lengths := make([]int, 0, len(placements))

	for _, sp := range placements {
		if sp.Ship == "" {
			return nil, NewError(KindInvalidPlacement, "ship identity is required")
		}
		if names[sp.Ship] {
			return nil, NewError(KindInvalidPlacement, "ship %q placed twice", sp.Ship)
		}
		names[sp.Ship] = true

		if len(sp.Coordinates) == 0 {
			return nil, NewError(KindInvalidPlacement, "ship %q has no coordinates", sp.Ship)
		}
		for _, c := range sp.Coordinates {
			if !e.rules.InBounds(c) {
				return nil, NewError(KindInvalidPlacement, "ship %q is out of bounds at %s", sp.Ship, c)
			}
		}
		if !isStraightRun(sp.Coordinates) {
			return nil, NewError(KindInvalidPlacement, "ship %q is not a contiguous straight line", sp.Ship)
		}
		for _, c := range sp.Coordinates {
			if board[c] == Ship {
				return nil, NewError(KindInvalidPlacement, "ship %q overlaps another ship at %s", sp.Ship, c)
			}
			board[c] = Ship
		}
		lengths = append(lengths, len(sp.Coordinates))
	}

	want := make([]int, 0, len(e.rules.Fleet))
	for _, s := range e.rules.Fleet {
		want = append(want, s.Length)
	}
	sort.Ints(want)
	sort.Ints(lengths)
	for i := range want {
		if want[i] != lengths[i] {
			return nil, NewError(KindInvalidPlacement, "ship lengths %v do not match fleet %v", lengths, want)
		}
	}

	return board, nil
}

// isStraightRun reports whether coords cover a gap-free horizontal or
// vertical segment with no repeated cell. Order does not matter.
func isStraightRun(coords []Coordinate) bool {
	if len(coords) == 1 {
		return true
	}
	sameRow, sameCol := true, true
	for _, c := range coords[1:] {
		if c.Y != coords[0].Y {
			sameRow = false
		}
		if c.X != coords[0].X {
			sameCol = false
		}
	}

	var axis []int
	switch {
	case sameRow:
		for _, c := range coords {
			axis = append(axis, c.X)
		}
	case sameCol:
		for _, c := range coords {
			axis = append(axis, c.Y)
		}
	default:
		return false
	}

	sort.Ints(axis)
	for i := 1; i < len(axis); i++ {
		if axis[i] != axis[i-1]+1 {
			return false
		}
	}
	return true
}
