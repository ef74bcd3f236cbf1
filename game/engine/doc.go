// Package engine provides the core game logic for the battleship server.
//
// The engine package implements:
//   - The grid cell model (coordinates, cell markers, boards)
//   - The game phases as a closed set of variants
//   - Pure join, placement and attack transitions
//   - Fleet placement validation
//   - Per-player view projection with hidden ship positions
//   - Ruleset loading and validation
//
// Core Types:
//
// Phase is a sealed interface implemented by AwaitingPlayers, Placing,
// Attacking and Win. Engine holds a Ruleset and applies transitions to a
// Phase value; it never mutates the phase it is given. Every rejected
// command returns a *GameError and the unchanged phase.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.ClassicRuleset())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	phase := engine.NewGame()
//	phase, _ = eng.Join(phase, "alice")
//	phase, _ = eng.Join(phase, "bob")
//
//	view := eng.ProjectFor(phase, "alice")
//
// Game Rules:
//
// Two players join, each submits a complete fleet matching the ruleset's
// ship lengths, then they alternate attacks starting with the first player
// to join. Attacking a cell twice is rejected without consuming the turn.
// The player who hits the last remaining ship segment of the opponent wins.
package engine
