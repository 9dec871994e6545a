package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-booking/internal/model"
)

func validDraft(roomID uint64) Draft {
	return Draft{
		RoomID:      roomID,
		UserID:      7,
		GuestName:   "Anna Petrova",
		GuestEmail:  "anna@example.com",
		GuestPhone:  "+99890 123 45 67",
		GuestsCount: 2,
		CheckIn:     day(2024, time.March, 10),
		CheckOut:    day(2024, time.March, 13),
	}
}

func newAdmission(store *memStore) (*Admission, *recordingNotifier) {
	notifier := &recordingNotifier{}
	resolver := NewResolver(store, false)
	return NewAdmission(store, resolver, notifier), notifier
}

func TestAdmit_CreatesPendingReservation(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, notifier := newAdmission(store)

	res, replayed, err := adm.Admit(context.Background(), validDraft(1))
	assert.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, int64(3000), res.TotalPriceCents)
	assert.NotZero(t, res.ID)
	assert.NotEmpty(t, res.IdempotencyKey)
	assert.Equal(t, 1, notifier.count())
}

func TestAdmit_RejectsOccupiedSpan(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 10), CheckOut: day(2024, time.March, 13),
		Status: model.ReservationConfirmed,
	})
	adm, notifier := newAdmission(store)

	_, _, err := adm.Admit(context.Background(), validDraft(1))
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, day(2024, time.March, 10), conflict.Date)
	assert.Equal(t, 0, notifier.count())
}

func TestAdmit_NamesFirstConflictingDate(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 12), CheckOut: day(2024, time.March, 14),
		Status: model.ReservationPending,
	})
	adm, _ := newAdmission(store)

	_, _, err := adm.Admit(context.Background(), validDraft(1))
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, day(2024, time.March, 12), conflict.Date)
}

func TestAdmit_BackToBackStaysAllowed(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 7), CheckOut: day(2024, time.March, 10),
		Status: model.ReservationConfirmed,
	})
	adm, _ := newAdmission(store)

	// New stay begins exactly on the existing check-out day.
	res, _, err := adm.Admit(context.Background(), validDraft(1))
	assert.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
}

func TestAdmit_RejectsBlockedDay(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.March, 20), model.DayBlocked, nil)
	adm, _ := newAdmission(store)

	d := validDraft(1)
	d.CheckIn = day(2024, time.March, 19)
	d.CheckOut = day(2024, time.March, 21)

	_, _, err := adm.Admit(context.Background(), d)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, day(2024, time.March, 20), conflict.Date)
}

func TestAdmit_TotalHonorsPerNightOverride(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.April, 2), model.DayAvailable, ptr(1500))
	adm, _ := newAdmission(store)

	d := validDraft(1)
	d.CheckIn = day(2024, time.April, 1)
	d.CheckOut = day(2024, time.April, 3)

	res, _, err := adm.Admit(context.Background(), d)
	assert.NoError(t, err)
	assert.Equal(t, int64(2500), res.TotalPriceCents)
}

func TestAdmit_PriceIsSnapshot(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, _ := newAdmission(store)

	res, _, err := adm.Admit(context.Background(), validDraft(1))
	assert.NoError(t, err)
	assert.Equal(t, int64(3000), res.TotalPriceCents)

	// Raising the base rate afterwards must not touch the stored total.
	room := store.rooms[1]
	room.PricePerNightCents = 9999
	store.addRoom(room)

	stored, err := store.ReservationByIdempotencyKey(context.Background(), res.IdempotencyKey)
	assert.NoError(t, err)
	assert.Equal(t, int64(3000), stored.TotalPriceCents)
}

func TestAdmit_ValidationFailuresNameFields(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, notifier := newAdmission(store)

	d := validDraft(1)
	d.GuestName = "  "
	d.GuestsCount = 0
	d.CheckOut = d.CheckIn

	_, _, err := adm.Admit(context.Background(), d)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"guest_name", "guests_count", "check_out_date"}, fields)
	assert.Equal(t, 0, notifier.count())
	assert.Empty(t, store.reservations)
}

func TestAdmit_InactiveRoomRejected(t *testing.T) {
	store := newMemStore()
	room := testRoom(1, 1000)
	room.IsActive = false
	store.addRoom(room)
	adm, _ := newAdmission(store)

	_, _, err := adm.Admit(context.Background(), validDraft(1))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "room_id", verr.Fields[0].Field)
}

func TestAdmit_UnknownRoom(t *testing.T) {
	adm, _ := newAdmission(newMemStore())
	_, _, err := adm.Admit(context.Background(), validDraft(42))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

// staleReadStore serves reservation reads from a snapshot that never
// sees new writes, while CreateReservation still enforces the
// exclusion constraint. It models a resolver pre-check racing
// against a concurrent commit.
type staleReadStore struct{ *memStore }

func (s *staleReadStore) ActiveReservations(context.Context, uint64, time.Time, time.Time) ([]model.Reservation, error) {
	return nil, nil
}

func TestAdmit_RacingSpanRejectedByPreCheck(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, _ := newAdmission(store)

	// Two drafts race for the same last-available span. The winner is
	// visible to the loser's pre-check, which names the first clashing
	// date.
	first := validDraft(1)
	first.IdempotencyKey = "first"
	second := validDraft(1)
	second.IdempotencyKey = "second"

	_, _, err := adm.Admit(context.Background(), first)
	assert.NoError(t, err)

	_, _, err = adm.Admit(context.Background(), second)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, day(2024, time.March, 10), conflict.Date)
	assert.Len(t, store.reservations, 1)
}

func TestAdmit_StoreExclusionBeatsStalePreCheck(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	stale := &staleReadStore{store}
	notifier := &recordingNotifier{}
	adm := NewAdmission(stale, NewResolver(stale, false), notifier)

	// The winner commits, but the loser's pre-check reads a snapshot
	// from before that commit and passes. Only the write-time
	// exclusion constraint stops the second reservation; since the
	// re-resolution is just as stale, the check-in day is reported.
	first := validDraft(1)
	first.IdempotencyKey = "first"
	second := validDraft(1)
	second.IdempotencyKey = "second"

	_, _, err := adm.Admit(context.Background(), first)
	assert.NoError(t, err)

	_, _, err = adm.Admit(context.Background(), second)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, day(2024, time.March, 10), conflict.Date)
	assert.Len(t, store.reservations, 1)
	assert.Equal(t, 1, notifier.count())
}

func TestAdmit_IdempotencyKeyReturnsOriginal(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, notifier := newAdmission(store)

	d := validDraft(1)
	d.IdempotencyKey = "retry-safe"

	created, replayed, err := adm.Admit(context.Background(), d)
	assert.NoError(t, err)
	assert.False(t, replayed)

	// The retry carries the key of its own successful write; it must
	// get the original back, not a conflict with its own nights.
	again, replayed, err := adm.Admit(context.Background(), d)
	assert.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, store.reservations, 1)
	assert.Equal(t, 1, notifier.count())
}

func TestAdmit_NoActiveOverlapEverPersisted(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	adm, _ := newAdmission(store)

	spans := [][2]time.Time{
		{day(2024, time.March, 10), day(2024, time.March, 13)},
		{day(2024, time.March, 12), day(2024, time.March, 14)},
		{day(2024, time.March, 13), day(2024, time.March, 15)},
		{day(2024, time.March, 9), day(2024, time.March, 11)},
	}
	for i, span := range spans {
		d := validDraft(1)
		d.CheckIn, d.CheckOut = span[0], span[1]
		d.IdempotencyKey = string(rune('a' + i))
		_, _, _ = adm.Admit(context.Background(), d)
	}

	// Whatever was admitted, no two active reservations overlap.
	seen := make(map[string]uint64)
	for _, r := range store.reservations {
		if !model.ActiveReservationStatus(r.Status) {
			continue
		}
		for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			if owner, taken := seen[key]; taken {
				t.Fatalf("night %s held by reservations %d and %d", key, owner, r.ID)
			}
			seen[key] = r.ID
		}
	}
}
