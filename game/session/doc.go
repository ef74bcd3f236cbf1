// Package session is the process-wide registry of battleship rooms.
//
// Manager maps room identifiers to *room.Room values. Identifiers are
// random UUID strings. The map is guarded by a RWMutex: lookups and listings
// share the read lock, creation and cleanup take the write lock. Game state
// itself lives in each room and is never touched while the registry lock is
// held.
//
// Usage:
//
//	manager := session.NewManager(publisher, logger)
//
//	r, err := manager.Create(engine.ClassicRuleset())
//	if err != nil {
//		return err
//	}
//
//	r, err = manager.Get(roomID)
//	if errors.Is(err, session.ErrRoomNotFound) {
//		// 404
//	}
//
//	summaries := manager.List()
//
// Cleanup:
//
// Rooms are never removed on disconnect. CleanupIdleRooms drops rooms that
// have no attached player and saw no activity for longer than the given
// age; the server runs it on a ticker.
package session
