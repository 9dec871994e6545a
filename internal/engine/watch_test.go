package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-booking/internal/model"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWatcher_NotifyDeliversFreshResolution(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, nil)

	var mu sync.Mutex
	var last *Resolution
	cancel := w.Watch(1, day(2024, time.March, 1), func(r *Resolution) {
		mu.Lock()
		last = r
		mu.Unlock()
	})
	defer cancel()

	store.setDay(1, day(2024, time.March, 20), model.DayBlocked, nil)
	w.Notify(1)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last != nil
	})
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint64(1), last.RoomID)
	assert.NotContains(t, last.BookableDates, "2024-03-20")
	assert.Len(t, last.BookableDates, 30)
}

func TestWatcher_BurstsCoalesce(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	w := NewWatcher(NewResolver(store, false), 30*time.Millisecond, nil)

	var updates atomic.Int32
	cancel := w.Watch(1, day(2024, time.March, 1), func(*Resolution) { updates.Add(1) })
	defer cancel()

	for i := 0; i < 10; i++ {
		w.Notify(1)
	}
	waitFor(t, func() bool { return updates.Load() >= 1 })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), updates.Load())
}

func TestWatcher_ScopedNotificationSkipsOtherRooms(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addRoom(testRoom(2, 1000))
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, nil)

	var room1, room2 atomic.Int32
	c1 := w.Watch(1, day(2024, time.March, 1), func(*Resolution) { room1.Add(1) })
	defer c1()
	c2 := w.Watch(2, day(2024, time.March, 1), func(*Resolution) { room2.Add(1) })
	defer c2()

	w.Notify(1)
	waitFor(t, func() bool { return room1.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), room2.Load())
}

func TestWatcher_UnscopedNotificationHitsAllRooms(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addRoom(testRoom(2, 1000))
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, nil)

	var room1, room2 atomic.Int32
	c1 := w.Watch(1, day(2024, time.March, 1), func(*Resolution) { room1.Add(1) })
	defer c1()
	c2 := w.Watch(2, day(2024, time.March, 1), func(*Resolution) { room2.Add(1) })
	defer c2()

	w.Notify(0)
	waitFor(t, func() bool { return room1.Load() == 1 && room2.Load() == 1 })
}

func TestWatcher_CancelStopsDelivery(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, nil)

	var updates atomic.Int32
	cancel := w.Watch(1, day(2024, time.March, 1), func(*Resolution) { updates.Add(1) })
	cancel()
	cancel() // idempotent

	w.Notify(1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), updates.Load())
}

func TestWatcher_InvalidateHookRunsBeforeRecompute(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))

	var invalidated atomic.Int32
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, func(roomID uint64) {
		assert.Equal(t, uint64(1), roomID)
		invalidated.Add(1)
	})

	var updates atomic.Int32
	cancel := w.Watch(1, day(2024, time.March, 15), func(*Resolution) { updates.Add(1) })
	defer cancel()

	w.Notify(1)
	waitFor(t, func() bool { return updates.Load() == 1 })
	assert.Equal(t, int32(1), invalidated.Load())
}

func TestWatcher_InvalidateRunsWithoutSubscribers(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))

	// A change for an unwatched room must still drop cached months,
	// otherwise plain GET requests serve stale data until the TTL.
	var rooms []uint64
	w := NewWatcher(NewResolver(store, false), 5*time.Millisecond, func(roomID uint64) {
		rooms = append(rooms, roomID)
	})

	w.Notify(1)
	w.Notify(0)
	assert.Equal(t, []uint64{1, 0}, rooms)
}
