package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
)

// watchKey identifies one observed room/month view.
type watchKey struct {
	roomID uint64
	month  string // YYYY-MM
}

// Watcher keeps resolver output live without polling. Change
// notifications are payload-less triggers: every notification for a
// room schedules a recomputation of each observed month of that
// room, and notifications arriving within the coalescing delay
// collapse into a single run. Rescheduling never drops the final
// recomputation: the last notification always has a pending run.
type Watcher struct {
	resolver *Resolver
	delay    time.Duration

	// invalidate, when set, runs on every notification so a shared
	// cache drops its stale entries even when nobody is watching the
	// room. roomID 0 means unscoped: drop everything.
	invalidate func(roomID uint64)

	mu     sync.Mutex
	nextID uint64
	subs   map[watchKey]map[uint64]func(*Resolution)
	timers map[watchKey]*time.Timer
}

// NewWatcher builds a Watcher over resolver. delay is the
// notification coalescing window; anything non-positive falls back
// to a small default. invalidate may be nil.
func NewWatcher(resolver *Resolver, delay time.Duration, invalidate func(roomID uint64)) *Watcher {
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &Watcher{
		resolver:   resolver,
		delay:      delay,
		invalidate: invalidate,
		subs:       make(map[watchKey]map[uint64]func(*Resolution)),
		timers:     make(map[watchKey]*time.Timer),
	}
}

// Watch subscribes onUpdate to recomputed resolutions of the room's
// month. The callback runs on the watcher's timer goroutine and
// must not block; SSE handlers forward into a buffered channel. The
// returned cancel function is idempotent.
func (w *Watcher) Watch(roomID uint64, monthAnchor time.Time, onUpdate func(*Resolution)) (cancel func()) {
	first, _ := calendar.MonthBounds(monthAnchor)
	key := watchKey{roomID: roomID, month: first.Format("2006-01")}

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	if w.subs[key] == nil {
		w.subs[key] = make(map[uint64]func(*Resolution))
	}
	w.subs[key][id] = onUpdate
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs[key], id)
			if len(w.subs[key]) == 0 {
				delete(w.subs, key)
				if t, ok := w.timers[key]; ok {
					t.Stop()
					delete(w.timers, key)
				}
			}
		})
	}
}

// Notify reacts to a change notification for a room. roomID 0 means
// the notification carried no scope, in which case every observed
// view is recomputed. No diffing is attempted: a notification is a
// trigger, not a delta. Cache invalidation happens here, for every
// notification, so unwatched rooms do not keep serving stale cached
// months until their TTL runs out.
func (w *Watcher) Notify(roomID uint64) {
	if w.invalidate != nil {
		w.invalidate(roomID)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for key := range w.subs {
		if roomID != 0 && key.roomID != roomID {
			continue
		}
		w.scheduleLocked(key)
	}
}

// scheduleLocked arms (or re-arms) the coalescing timer for key.
// Callers hold w.mu.
func (w *Watcher) scheduleLocked(key watchKey) {
	if t, ok := w.timers[key]; ok {
		t.Reset(w.delay)
		return
	}
	w.timers[key] = time.AfterFunc(w.delay, func() { w.recompute(key) })
}

// recompute resolves the view once more and republishes it to every
// current observer. A failed resolution is logged and dropped; the
// next notification will retry. A recomputation superseded by a
// later one simply loses: last write wins on the derived view.
func (w *Watcher) recompute(key watchKey) {
	w.mu.Lock()
	delete(w.timers, key)
	w.mu.Unlock()

	anchor, err := time.Parse("2006-01", key.month)
	if err != nil {
		return
	}

	ctx, cancelCtx := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCtx()
	res, err := w.resolver.Resolve(ctx, key.roomID, anchor)
	if err != nil {
		log.Printf("watcher: recompute room %d month %s failed: %v", key.roomID, key.month, err)
		return
	}

	w.mu.Lock()
	observers := make([]func(*Resolution), 0, len(w.subs[key]))
	for _, fn := range w.subs[key] {
		observers = append(observers, fn)
	}
	w.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}
}
