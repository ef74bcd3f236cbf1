package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/transport/events"
)

// Update is one projected state pushed to a player
type Update struct {
	RoomID string      `json:"room_id"`
	View   engine.View `json:"state"`
}

// Outbox is the per-player channel a room enqueues updates on. The room
// closes it when the player is detached.
type Outbox chan Update

// NewOutbox returns an outbox with the default buffer size
func NewOutbox() Outbox {
	return make(Outbox, engine.OutboxBufSize)
}

// Summary is a read-only description of a room
type Summary struct {
	ID                   string            `json:"id"`
	ConnectedPlayerCount int               `json:"connectedPlayerCount"`
	PlayerIDs            []engine.PlayerID `json:"playerIds"`
	HasEnded             bool              `json:"hasEnded"`
	Phase                engine.PhaseKind  `json:"phase"`
	Ruleset              string            `json:"ruleset"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// Room owns one game and the outboxes of its connected players. Every
// mutation goes through apply, which holds mu for the read-compute-swap and
// the broadcast that follows it.
type Room struct {
	ID        string
	CreatedAt time.Time

	engine    *engine.Engine
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	phase     engine.Phase
	outboxes  map[engine.PlayerID]Outbox
	updatedAt time.Time
	retired   bool
}

// Option configures a Room
type Option func(*Room)

// WithPublisher sets the lifecycle event publisher
func WithPublisher(p events.Publisher) Option {
	return func(r *Room) { r.publisher = p }
}

// WithLogger sets the room logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Room) { r.logger = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

// New creates an empty room waiting for players
func New(id string, eng *engine.Engine, opts ...Option) *Room {
	r := &Room{
		ID:        id,
		engine:    eng,
		publisher: events.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
		phase:     engine.NewGame(),
		outboxes:  make(map[engine.PlayerID]Outbox),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.CreatedAt = r.now()
	r.updatedAt = r.CreatedAt
	r.logger = r.logger.With("room_id", id)
	return r
}

// Join applies a join command and, only if it succeeds, attaches out so the
// broadcast that follows already includes the new player.
func (r *Room) Join(id engine.PlayerID, out Outbox) error {
	return r.apply(engine.JoinCommand{PlayerID: id}, out)
}

// Apply runs cmd against the current phase. A rejected command leaves the
// phase unchanged, broadcasts nothing and returns the *engine.GameError.
func (r *Room) Apply(cmd engine.Command) error {
	return r.apply(cmd, nil)
}

func (r *Room) apply(cmd engine.Command, out Outbox) error {
	r.mu.Lock()
	if r.retired {
		r.mu.Unlock()
		return engine.NewError(engine.KindRoomNotFound, "room %s was removed", r.ID)
	}
	prev := r.phase
	next, err := cmd.Apply(r.engine, prev)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	r.phase = next
	r.updatedAt = r.now()
	if out != nil {
		r.outboxes[cmd.Player()] = out
	}
	r.broadcastLocked()
	evts := r.transitionEvents(cmd, prev, next)
	r.mu.Unlock()

	for _, evt := range evts {
		r.publish(evt)
	}
	return nil
}

// broadcastLocked enqueues a fresh projection for every attached player.
// A full outbox means its reader is gone or hopelessly behind; it is detached.
func (r *Room) broadcastLocked() {
	for id, out := range r.outboxes {
		update := Update{RoomID: r.ID, View: r.engine.ProjectFor(r.phase, id)}
		select {
		case out <- update:
		default:
			r.logger.Warn("outbox full, detaching player", "player_id", id)
			delete(r.outboxes, id)
			close(out)
		}
	}
}

func (r *Room) transitionEvents(cmd engine.Command, prev, next engine.Phase) []events.Event {
	now := r.now()
	base := events.Event{RoomID: r.ID, Phase: next.Kind(), Players: next.Members(), Timestamp: now}

	var evts []events.Event
	if _, ok := cmd.(engine.JoinCommand); ok {
		e := base
		e.Type = events.PlayerJoined
		e.Player = cmd.Player()
		evts = append(evts, e)
	}
	if prev.Kind() != next.Kind() {
		switch ph := next.(type) {
		case engine.Attacking:
			e := base
			e.Type = events.GameStarted
			evts = append(evts, e)
		case engine.Win:
			e := base
			e.Type = events.GameFinished
			e.Winner = ph.Winner
			evts = append(evts, e)
		}
	}
	return evts
}

func (r *Room) publish(evt events.Event) {
	if err := r.publisher.Publish(context.Background(), evt); err != nil {
		r.logger.Warn("failed to publish room event", "event", evt.Type, "error", err)
	}
}

// Detach removes out from the room if it is still the outbox attached for
// id and closes it. The game phase is not affected.
func (r *Room) Detach(id engine.PlayerID, out Outbox) bool {
	r.mu.Lock()
	cur, ok := r.outboxes[id]
	if !ok || cur != out {
		r.mu.Unlock()
		return false
	}
	delete(r.outboxes, id)
	close(out)
	r.updatedAt = r.now()
	members := r.phase.Members()
	kind := r.phase.Kind()
	r.mu.Unlock()

	r.publish(events.Event{
		Type:      events.PlayerLeft,
		RoomID:    r.ID,
		Player:    id,
		Players:   members,
		Phase:     kind,
		Timestamp: r.now(),
	})
	return true
}

// Withdraw takes back the join of a player whose connection never came up.
// out is detached, and the player leaves the game if nobody has acted since
// the join. Otherwise the engine error is returned and only the detach holds.
func (r *Room) Withdraw(id engine.PlayerID, out Outbox) error {
	r.mu.Lock()
	if cur, ok := r.outboxes[id]; ok && cur == out {
		delete(r.outboxes, id)
		close(out)
	}
	r.updatedAt = r.now()
	next, err := r.engine.Withdraw(r.phase, id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.phase = next
	r.broadcastLocked()
	members := next.Members()
	r.mu.Unlock()

	r.publish(events.Event{
		Type:      events.PlayerLeft,
		RoomID:    r.ID,
		Player:    id,
		Players:   members,
		Phase:     next.Kind(),
		Timestamp: r.now(),
	})
	return nil
}

// Phase returns the current phase. Phases are immutable, so the returned
// value stays safe to use after the call returns.
func (r *Room) Phase() engine.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// ViewFor projects the current phase for one player
func (r *Room) ViewFor(id engine.PlayerID) engine.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.ProjectFor(r.phase, id)
}

// Rules returns the room's ruleset
func (r *Room) Rules() *engine.Ruleset {
	return r.engine.Rules()
}

// Summary returns a snapshot for introspection
func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := r.phase.Members()
	if players == nil {
		players = []engine.PlayerID{}
	}
	return Summary{
		ID:                   r.ID,
		ConnectedPlayerCount: len(r.outboxes),
		PlayerIDs:            players,
		HasEnded:             engine.HasEnded(r.phase),
		Phase:                r.phase.Kind(),
		Ruleset:              r.engine.Rules().Name,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.updatedAt,
	}
}

// Idle reports whether no player is attached and nothing happened in the
// room for longer than maxAge.
func (r *Room) Idle(maxAge time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idleLocked(maxAge)
}

// RetireIfIdle marks the room removed if it is idle. The check and the mark
// happen under one lock, so a join either lands first and keeps the room
// alive or is rejected with room_not_found afterwards.
func (r *Room) RetireIfIdle(maxAge time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retired || !r.idleLocked(maxAge) {
		return false
	}
	r.retired = true
	return true
}

func (r *Room) idleLocked(maxAge time.Duration) bool {
	return len(r.outboxes) == 0 && r.now().Sub(r.updatedAt) > maxAge
}
