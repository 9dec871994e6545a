package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-room-booking/internal/model"
)

func newLedger(store *memStore) (*Ledger, *recordingNotifier) {
	notifier := &recordingNotifier{}
	auth := staticAuth{admins: map[uint64]bool{1: true}}
	return NewLedger(store, auth, notifier), notifier
}

func TestSetDayStatus_UpsertsRow(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	ledger, notifier := newLedger(store)

	contradictions, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), model.DayBlocked, nil)
	assert.NoError(t, err)
	assert.Empty(t, contradictions)
	assert.Equal(t, 1, notifier.count())

	row := store.ledger[5]["2024-03-20"]
	assert.Equal(t, model.DayBlocked, row.Status)
	assert.Nil(t, row.PriceOverrideCents)
}

func TestSetDayStatus_ReplacesStatusAndOverrideTogether(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	store.setDay(5, day(2024, time.March, 20), model.DayAvailable, ptr(1500))
	ledger, _ := newLedger(store)

	_, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), model.DayBlocked, nil)
	assert.NoError(t, err)

	row := store.ledger[5]["2024-03-20"]
	assert.Equal(t, model.DayBlocked, row.Status)
	assert.Nil(t, row.PriceOverrideCents) // the old override does not linger
}

func TestSetDayStatus_NonAdminRejected(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	ledger, notifier := newLedger(store)

	_, err := ledger.SetDayStatus(context.Background(), 99, 5, day(2024, time.March, 20), model.DayBlocked, nil)
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Empty(t, store.ledger[5])
	assert.Equal(t, 0, notifier.count())
}

func TestSetDayStatus_UnknownStatusRejected(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	ledger, _ := newLedger(store)

	_, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), "closed", nil)
	assert.Error(t, err)
}

func TestSetDayStatus_NonPositiveOverrideRejected(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	ledger, _ := newLedger(store)

	_, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), model.DayAvailable, ptr(0))
	assert.Error(t, err)
}

func TestSetDayStatus_UnknownRoom(t *testing.T) {
	ledger, _ := newLedger(newMemStore())
	_, err := ledger.SetDayStatus(context.Background(), 1, 404, day(2024, time.March, 20), model.DayBlocked, nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSetDayStatus_FlagsContradictionWithReservation(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	store.addReservation(model.Reservation{
		RoomID:  5,
		CheckIn: day(2024, time.March, 19), CheckOut: day(2024, time.March, 21),
		Status: model.ReservationConfirmed,
	})
	ledger, _ := newLedger(store)

	// Blocking an occupied day is allowed but surfaced: the
	// reservation remains the binding commitment.
	contradictions, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), model.DayBlocked, nil)
	assert.NoError(t, err)
	assert.Len(t, contradictions, 1)
	assert.Equal(t, model.DayBlocked, store.ledger[5]["2024-03-20"].Status)
}

func TestSetDayStatus_BookedStatusNotFlagged(t *testing.T) {
	store := newMemStore()
	store.addRoom(testRoom(5, 1000))
	store.addReservation(model.Reservation{
		RoomID:  5,
		CheckIn: day(2024, time.March, 19), CheckOut: day(2024, time.March, 21),
		Status: model.ReservationConfirmed,
	})
	ledger, _ := newLedger(store)

	contradictions, err := ledger.SetDayStatus(context.Background(), 1, 5, day(2024, time.March, 20), model.DayBooked, nil)
	assert.NoError(t, err)
	assert.Empty(t, contradictions)
}
