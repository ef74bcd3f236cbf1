// Package service provides the business logic layer for the battleship server.
//
// GameService is the facade the transport layers (HTTP, websocket, MCP)
// talk to. It resolves rulesets through a RulesetCatalog, creates and finds
// rooms through a RoomRegistry and forwards player commands to the room,
// which serializes them.
//
// Errors:
//
// Rejections from the game are *engine.GameError values, possibly wrapped;
// use errors.Is with the engine sentinels or errors.As to read the kind.
// ErrRulesetNotFound reports an unknown ruleset name.
//
// Usage:
//
//	registry := session.NewManager(publisher, logger)
//	catalog, _ := config.NewManager("configs")
//	svc := service.NewGameService(registry, catalog, logger)
//
//	info, err := svc.CreateRoom(ctx, "classic")
//	out := room.NewOutbox()
//	err = svc.JoinRoom(ctx, info.ID, "alice", out)
package service
