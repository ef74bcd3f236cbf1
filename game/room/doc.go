// Package room implements the concurrent core of a single game room.
//
// A Room owns one engine.Phase and the outboxes of its connected players.
// All mutations go through one critical section that reads the current
// phase, runs the state machine, swaps in the result and then enqueues a
// per-player projection on every attached outbox. Rejected commands return
// their *engine.GameError to the caller and never reach other players.
//
// Outboxes are buffered channels owned by the room once attached: the room
// is their only sender and closes them on Detach or when a reader falls so
// far behind that its buffer is full.
package room
