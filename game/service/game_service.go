package service

import (
	"context"
	"time"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

// GameService defines all room-related operations
type GameService interface {
	// Room Management
	CreateRoom(ctx context.Context, ruleset string) (*RoomInfo, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	CleanupIdleRooms(ctx context.Context, maxAge time.Duration) int

	// Player Session
	JoinRoom(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error
	LeaveRoom(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error
	WithdrawJoin(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error
	PlaceShips(ctx context.Context, roomID string, playerID engine.PlayerID, placements []engine.ShipPlacement) error
	AttackShips(ctx context.Context, roomID string, playerID engine.PlayerID, target engine.Coordinate) error

	// Configuration
	ListRulesets(ctx context.Context) ([]*RulesetInfo, error)
}

// RoomRegistry defines room storage operations
type RoomRegistry interface {
	Create(rules *engine.Ruleset) (*room.Room, error)
	Get(id string) (*room.Room, error)
	List() []room.Summary
	CleanupIdleRooms(maxAge time.Duration) int
}

// RulesetCatalog handles ruleset loading
type RulesetCatalog interface {
	LoadRuleset(name string) (*engine.Ruleset, error)
	ListRulesets() ([]*RulesetInfo, error)
	GetDefault() *engine.Ruleset
}
