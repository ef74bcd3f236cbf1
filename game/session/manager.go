package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
	"github.com/wricardo/battleship-server/transport/events"
)

// ErrRoomNotFound is returned by Get for unknown identifiers
var ErrRoomNotFound = engine.ErrRoomNotFound

// Manager is the process-wide room registry
type Manager struct {
	rooms     map[string]*room.Room
	publisher events.Publisher
	logger    *slog.Logger
	mu        sync.RWMutex

	// newID is swapped in tests
	newID func() string
	clock func() time.Time
}

// NewManager creates an empty registry. A nil publisher disables events.
func NewManager(publisher events.Publisher, logger *slog.Logger) *Manager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		rooms:     make(map[string]*room.Room),
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
		clock:     time.Now,
	}
}

// Create allocates a fresh room playing rules
func (m *Manager) Create(rules *engine.Ruleset) (*room.Room, error) {
	eng, err := engine.NewEngine(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	id := m.newID()
	r := room.New(id, eng,
		room.WithPublisher(m.publisher),
		room.WithLogger(m.logger),
		room.WithClock(m.clock),
	)

	m.mu.Lock()
	if _, exists := m.rooms[id]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("room id collision: %s", id)
	}
	m.rooms[id] = r
	m.mu.Unlock()

	m.logger.Info("room created", "room_id", id, "ruleset", eng.Rules().Name)
	m.publish(events.Event{Type: events.RoomCreated, RoomID: id, Phase: engine.PhaseAwaitingPlayers, Timestamp: r.CreatedAt})
	return r, nil
}

// Get retrieves a room by id
func (m *Manager) Get(id string) (*room.Room, error) {
	m.mu.RLock()
	r, exists := m.rooms[id]
	m.mu.RUnlock()

	if !exists {
		return nil, engine.NewError(engine.KindRoomNotFound, "room %s not found", id)
	}
	return r, nil
}

// List returns a summary of every room, oldest first
func (m *Manager) List() []room.Summary {
	m.mu.RLock()
	rooms := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	result := make([]room.Summary, 0, len(rooms))
	for _, r := range rooms {
		result = append(result, r.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// CleanupIdleRooms removes rooms with no connected player and no activity
// for longer than maxAge. Finished games therefore stay listed for maxAge
// after their last player leaves. A removed room rejects every later
// command, including joins from callers that fetched it before removal.
func (m *Manager) CleanupIdleRooms(maxAge time.Duration) int {
	m.mu.Lock()
	var removed []string
	for id, r := range m.rooms {
		if r.RetireIfIdle(maxAge) {
			delete(m.rooms, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		m.publish(events.Event{Type: events.RoomRemoved, RoomID: id, Timestamp: m.clock()})
	}
	return len(removed)
}

// Count returns the number of rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Manager) publish(evt events.Event) {
	if err := m.publisher.Publish(context.Background(), evt); err != nil {
		m.logger.Warn("failed to publish room event", "room_id", evt.RoomID, "event", evt.Type, "error", err)
	}
}
