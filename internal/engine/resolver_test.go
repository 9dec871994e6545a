package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-booking/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v int64) *int64 { return &v }

func testRoom(id uint64, price int64) model.Room {
	return model.Room{ID: id, Name: "Standard", PricePerNightCents: price, IsActive: true}
}

func TestResolve_EmptyLedgerNoReservations(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Equal(t, "2024-03", res.Month)
	assert.Len(t, res.BookableDates, 31)
	for _, d := range res.BookableDates {
		assert.Equal(t, int64(1000), res.PriceByDate[d])
	}
}

func TestResolve_ActiveReservationOccupiesNights(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 10), CheckOut: day(2024, time.March, 13),
		Status: model.ReservationConfirmed,
	})
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Len(t, res.BookableDates, 28)
	assert.NotContains(t, res.BookableDates, "2024-03-10")
	assert.NotContains(t, res.BookableDates, "2024-03-11")
	assert.NotContains(t, res.BookableDates, "2024-03-12")
	// Check-out day is free for a new check-in.
	assert.Contains(t, res.BookableDates, "2024-03-13")
}

func TestResolve_CancelledReservationIsInert(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 10), CheckOut: day(2024, time.March, 13),
		Status: model.ReservationCancelled,
	})
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Len(t, res.BookableDates, 31)
}

func TestResolve_BlockedDayExcluded(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.March, 20), model.DayBlocked, nil)
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.NotContains(t, res.BookableDates, "2024-03-20")
	assert.Len(t, res.BookableDates, 30)
}

func TestResolve_PriceOverrideHonored(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.April, 2), model.DayAvailable, ptr(1500))
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.April, 1))
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), res.PriceByDate["2024-04-02"])
	assert.Equal(t, int64(1000), res.PriceByDate["2024-04-01"])
}

func TestResolve_OptInPolicyRequiresExplicitAvailable(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.March, 5), model.DayAvailable, nil)
	store.setDay(1, day(2024, time.March, 6), model.DayBlocked, nil)
	r := NewResolver(store, true)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Equal(t, []string{"2024-03-05"}, res.BookableDates)
}

func TestResolve_InactiveRoomNeverBookable(t *testing.T) {
	store := newMemStore()
	room := testRoom(1, 1000)
	room.IsActive = false
	store.addRoom(room)
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Empty(t, res.BookableDates)
}

func TestResolve_UnknownRoom(t *testing.T) {
	r := NewResolver(newMemStore(), false)
	_, err := r.Resolve(context.Background(), 99, day(2024, time.March, 1))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestResolve_FetchFailureYieldsNoPartialResult(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.fetchErr = errors.New("connection reset")
	r := NewResolver(store, false)

	res, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.Nil(t, res)
	var ue *UpstreamError
	assert.ErrorAs(t, err, &ue)
}

func TestResolve_IdempotentWithoutWrites(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.March, 8), model.DayBlocked, nil)
	store.addReservation(model.Reservation{
		RoomID:  1,
		CheckIn: day(2024, time.March, 20), CheckOut: day(2024, time.March, 22),
		Status: model.ReservationPending,
	})
	r := NewResolver(store, false)

	first, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	second, err := r.Resolve(context.Background(), 1, day(2024, time.March, 1))
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveSpan_CrossesMonths(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(1, 1000))
	store.setDay(1, day(2024, time.April, 1), model.DayAvailable, ptr(2000))
	r := NewResolver(store, false)

	view, err := r.ResolveSpan(context.Background(), 1, day(2024, time.March, 30), day(2024, time.April, 2))
	assert.NoError(t, err)
	assert.Len(t, view, 4)
	assert.Equal(t, int64(1000), view["2024-03-31"])
	assert.Equal(t, int64(2000), view["2024-04-01"])
}
