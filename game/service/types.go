package service

import (
	"errors"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

// ErrRulesetNotFound is returned when a named ruleset does not exist
var ErrRulesetNotFound = errors.New("ruleset not found")

// RoomInfo provides information about a room
type RoomInfo struct {
	room.Summary
	Rules *engine.Ruleset `json:"rules,omitempty"`
}

// RulesetInfo provides information about a ruleset file
type RulesetInfo struct {
	Filename    string            `json:"filename"`
	RulesetID   string            `json:"ruleset_id"` // The identifier to use for room creation
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Fleet       []engine.ShipSpec `json:"fleet"`
	FleetCells  int               `json:"fleet_cells"`
}
