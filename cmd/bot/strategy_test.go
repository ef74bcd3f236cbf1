package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/battleship-server/game/engine"
)

func TestRandomFleet_IsAcceptedByEngine(t *testing.T) {
	rulesets := []*engine.Ruleset{
		engine.ClassicRuleset(),
		{Name: "tight", Width: 4, Height: 4, Fleet: []engine.ShipSpec{{Name: "a", Length: 4}, {Name: "b", Length: 4}}},
		{Name: "column", Width: 1, Height: 4, Fleet: []engine.ShipSpec{{Name: "a", Length: 2}}},
	}

	for _, rules := range rulesets {
		t.Run(rules.Name, func(t *testing.T) {
			eng, err := engine.NewEngine(rules)
			require.NoError(t, err)

			for seed := int64(0); seed < 20; seed++ {
				placements, err := RandomFleet(rand.New(rand.NewSource(seed)), rules.Width, rules.Height, rules.Fleet)
				require.NoError(t, err)

				board, err := eng.BuildBoard(placements)
				require.NoError(t, err, "seed %d", seed)
				assert.Equal(t, rules.FleetCells(), board.Remaining())
			}
		})
	}
}

func TestRandomFleet_Impossible(t *testing.T) {
	_, err := RandomFleet(rand.New(rand.NewSource(1)), 2, 2, []engine.ShipSpec{{Name: "long", Length: 3}})
	assert.Error(t, err)
}

func emptyBoard(w, h int) [][]engine.Cell {
	board := make([][]engine.Cell, h)
	for y := range board {
		board[y] = make([]engine.Cell, w)
	}
	return board
}

func TestTargeter_HuntUsesParity(t *testing.T) {
	targeter := NewTargeter(rand.New(rand.NewSource(3)))
	board := emptyBoard(6, 6)

	for i := 0; i < 50; i++ {
		c, ok := targeter.Next(board)
		require.True(t, ok)
		assert.Equal(t, 0, (c.X+c.Y)%2, "hunt target %s off parity", c)
	}
}

func TestTargeter_TargetsAroundHits(t *testing.T) {
	targeter := NewTargeter(rand.New(rand.NewSource(5)))
	board := emptyBoard(5, 5)
	board[2][2] = engine.Hit

	neighbours := map[engine.Coordinate]bool{
		{X: 1, Y: 2}: true, {X: 3, Y: 2}: true, {X: 2, Y: 1}: true, {X: 2, Y: 3}: true,
	}
	for i := 0; i < 20; i++ {
		c, ok := targeter.Next(board)
		require.True(t, ok)
		assert.True(t, neighbours[c], "expected a neighbour of the hit, got %s", c)
	}
}

func TestTargeter_PrefersLineOfHits(t *testing.T) {
	targeter := NewTargeter(rand.New(rand.NewSource(7)))
	board := emptyBoard(6, 6)
	board[2][2] = engine.Hit
	board[2][3] = engine.Hit
	board[2][1] = engine.Miss

	c, ok := targeter.Next(board)
	require.True(t, ok)
	assert.Equal(t, engine.Coordinate{X: 4, Y: 2}, c)
}

func TestTargeter_SkipAndExhaust(t *testing.T) {
	targeter := NewTargeter(rand.New(rand.NewSource(9)))
	board := emptyBoard(2, 1)
	board[0][0] = engine.Miss

	c, ok := targeter.Next(board)
	require.True(t, ok)
	assert.Equal(t, engine.Coordinate{X: 1, Y: 0}, c)

	targeter.Skip(c)
	_, ok = targeter.Next(board)
	assert.False(t, ok)
}
