package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
	"github.com/wricardo/battleship-server/transport/events"
)

type countingPublisher struct {
	mu     sync.Mutex
	counts map[events.Type]int
}

func (p *countingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = map[events.Type]int{}
	}
	p.counts[evt.Type]++
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error {
	return errors.New("broker down")
}

func testRules() *engine.Ruleset {
	return &engine.Ruleset{
		Name:   "scout",
		Width:  5,
		Height: 5,
		Fleet:  []engine.ShipSpec{{Name: "scout", Length: 1}},
	}
}

func TestManager_Create(t *testing.T) {
	pub := &countingPublisher{}
	manager := NewManager(pub, nil)

	t.Run("creates a waiting room", func(t *testing.T) {
		r, err := manager.Create(testRules())
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Len(t, r.ID, 36, "uuid string")
		assert.Equal(t, engine.PhaseAwaitingPlayers, r.Phase().Kind())
		assert.Equal(t, "scout", r.Rules().Name)
	})

	t.Run("nil ruleset falls back to classic", func(t *testing.T) {
		r, err := manager.Create(nil)
		require.NoError(t, err)
		assert.Equal(t, "classic", r.Rules().Name)
	})

	t.Run("invalid ruleset", func(t *testing.T) {
		_, err := manager.Create(&engine.Ruleset{Name: "bad"})
		assert.ErrorContains(t, err, "failed to create engine")
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			r, err := manager.Create(testRules())
			require.NoError(t, err)
			assert.False(t, seen[r.ID])
			seen[r.ID] = true
		}
	})

	assert.Equal(t, 102, pub.counts[events.RoomCreated])
	assert.Equal(t, 102, manager.Count())
}

func TestManager_CreateCollision(t *testing.T) {
	manager := NewManager(nil, nil)
	manager.newID = func() string { return "fixed" }

	_, err := manager.Create(testRules())
	require.NoError(t, err)
	_, err = manager.Create(testRules())
	assert.ErrorContains(t, err, "collision")
	assert.Equal(t, 1, manager.Count())
}

func TestManager_Get(t *testing.T) {
	manager := NewManager(nil, nil)
	created, err := manager.Create(testRules())
	require.NoError(t, err)

	got, err := manager.Get(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)

	_, err = manager.Get("missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestManager_List(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	manager := NewManager(nil, nil)
	manager.clock = func() time.Time { return now }
	ids := []string{"c", "a", "b"}
	next := 0
	manager.newID = func() string { id := ids[next]; next++; return id }

	first, _ := manager.Create(testRules())
	now = now.Add(time.Minute)
	second, _ := manager.Create(testRules())
	third, _ := manager.Create(testRules())

	require.NoError(t, first.Join("alice", room.NewOutbox()))
	require.NoError(t, first.Join("bob", room.NewOutbox()))

	list := manager.List()
	require.Len(t, list, 3)
	assert.Equal(t, first.ID, list[0].ID)
	// same creation time falls back to id order: "a" before "b"
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, third.ID, list[2].ID)

	assert.Equal(t, 2, list[0].ConnectedPlayerCount)
	assert.Equal(t, []engine.PlayerID{"alice", "bob"}, list[0].PlayerIDs)
	assert.False(t, list[0].HasEnded)
	assert.Equal(t, []engine.PlayerID{}, list[1].PlayerIDs)
}

func TestManager_CleanupIdleRooms(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pub := &countingPublisher{}
	manager := NewManager(pub, nil)
	manager.clock = func() time.Time { return now }

	abandoned, _ := manager.Create(testRules())
	active, _ := manager.Create(testRules())
	require.NoError(t, active.Join("alice", room.NewOutbox()))

	now = now.Add(2 * time.Hour)
	fresh, _ := manager.Create(testRules())

	removed := manager.CleanupIdleRooms(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, pub.counts[events.RoomRemoved])

	_, err := manager.Get(abandoned.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = manager.Get(active.ID)
	assert.NoError(t, err)
	_, err = manager.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestManager_JoinAfterCleanupIsRejected(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	manager := NewManager(nil, nil)
	manager.clock = func() time.Time { return now }

	// a caller fetches the room, then cleanup removes it before the join lands
	r, err := manager.Create(testRules())
	require.NoError(t, err)
	held, err := manager.Get(r.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	require.Equal(t, 1, manager.CleanupIdleRooms(time.Hour))

	out := room.NewOutbox()
	err = held.Join("alice", out)
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
	assert.Empty(t, held.Summary().PlayerIDs)
	assert.Equal(t, 0, held.Summary().ConnectedPlayerCount)
	assert.Empty(t, out)
}

func TestManager_PublisherFailureIsNotFatal(t *testing.T) {
	manager := NewManager(failingPublisher{}, nil)
	r, err := manager.Create(testRules())
	require.NoError(t, err)
	assert.NoError(t, r.Join("alice", room.NewOutbox()))
}

func TestManager_ConcurrentCreates(t *testing.T) {
	manager := NewManager(nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := manager.Create(testRules()); err != nil {
				errs <- fmt.Errorf("create %d: %w", i, err)
			}
			manager.List()
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 50, manager.Count())
}
