package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/service"
)

const gameInstructions = `Battleship - Complete Instructions

GAME OBJECTIVE:
Sink every ship of your opponent before they sink yours.

ROOMS:
1. Create a room with create_game (or POST /createGame).
2. Two players join over WebSocket: GET /join/{roomId}/{playerId}.
   The first player waits; the second join starts ship placement.

PLACEMENT:
Each player sends their whole fleet once. Every ship is a straight horizontal
or vertical run of adjacent cells, inside the board, not overlapping another
ship. Ship lengths must match the room's ruleset exactly.

  {"type":"PlaceShips","placements":[{"ship":"destroyer","coordinates":[{"x":0,"y":0},{"x":1,"y":0}]}]}

ATTACKING:
Once both fleets are placed, the first player to join shoots first. Players
alternate one shot at a time, hit or miss.

  {"type":"AttackShips","coordinate":{"x":3,"y":4}}

SERVER MESSAGES:
After every accepted command each player receives their own view:
  {"event":"state","room_id":"...","state":{...}}
Your own board shows your ships; the opponent board only shows your hits and
misses. A rejected command produces an error for the sender only:
  {"event":"error","room_id":"...","error":{"kind":"not_your_turn","message":"..."}}

ERROR KINDS:
room_not_found, room_full, unknown_player, duplicate_player, wrong_phase,
invalid_placement, invalid_coordinate, duplicate_attack, not_your_turn,
malformed_message

Good hunting!`

func formatRoomList(rooms []service.RoomInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rooms (%d):\n\n", len(rooms)))
	for _, r := range rooms {
		sb.WriteString(fmt.Sprintf("- %s [%s] ruleset=%s players=%s connected=%d",
			r.ID, r.Phase, r.Ruleset, formatPlayers(r.PlayerIDs), r.ConnectedPlayerCount))
		if r.HasEnded {
			sb.WriteString(" (ended)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRoomInfo(info *service.RoomInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Room: %s\n", info.ID))
	sb.WriteString(fmt.Sprintf("Phase: %s\n", info.Phase))
	sb.WriteString(fmt.Sprintf("Players: %s\n", formatPlayers(info.PlayerIDs)))
	sb.WriteString(fmt.Sprintf("Connected: %d\n", info.ConnectedPlayerCount))
	sb.WriteString(fmt.Sprintf("Ended: %t\n", info.HasEnded))
	sb.WriteString(fmt.Sprintf("Created: %s\n", info.CreatedAt.Format("15:04:05")))
	if info.Rules != nil {
		sb.WriteString(fmt.Sprintf("Ruleset: %s (%dx%d)\n", info.Rules.Name, info.Rules.Width, info.Rules.Height))
		sb.WriteString(fmt.Sprintf("Fleet: %s\n", formatFleet(info.Rules.Fleet)))
	}
	return sb.String()
}

func formatRulesets(rulesets []service.RulesetInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rulesets (%d):\n\n", len(rulesets)))
	for _, r := range rulesets {
		sb.WriteString(fmt.Sprintf("- %s: %dx%d, %d ship cells", r.RulesetID, r.Width, r.Height, r.FleetCells))
		if r.Description != "" {
			sb.WriteString(" - " + r.Description)
		}
		sb.WriteString(fmt.Sprintf("\n  Fleet: %s\n", formatFleet(r.Fleet)))
	}
	return sb.String()
}

func formatPlayers(ids []engine.PlayerID) string {
	if len(ids) == 0 {
		return "none"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

func formatFleet(fleet []engine.ShipSpec) string {
	parts := make([]string, len(fleet))
	for i, s := range fleet {
		parts[i] = fmt.Sprintf("%s(%d)", s.Name, s.Length)
	}
	return strings.Join(parts, " ")
}
