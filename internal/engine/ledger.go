package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// Ledger is the admin mutation surface over the per-room, per-day
// availability ledger. Authorization is delegated to the external
// Authorizer collaborator; the ledger itself only knows how to
// write rows and to flag contradictions.
type Ledger struct {
	store  Store
	auth   Authorizer
	notify Notifier
}

// NewLedger wires a Ledger. notify may be nil when no change feed
// is configured.
func NewLedger(store Store, auth Authorizer, notify Notifier) *Ledger {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Ledger{store: store, auth: auth, notify: notify}
}

// SetDayStatus upserts the ledger row for (roomID, date), replacing
// status and price override together in a single row write, and
// triggers a change notification so watchers recompute.
//
// actorID is the caller identity resolved at the API boundary; the
// call fails with ErrNotAdmin unless the authorizer vouches for it.
//
// The ledger deliberately performs no validation against existing
// reservations: an admin may block a day a reservation already
// occupies. Such contradictions are returned (reservation IDs) and
// logged rather than rejected; the reservation remains the binding
// commitment.
func (l *Ledger) SetDayStatus(ctx context.Context, actorID, roomID uint64, date time.Time, status string, priceOverrideCents *int64) ([]uint64, error) {
	ok, err := l.auth.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, fetchErr("authorization", err)
	}
	if !ok {
		return nil, ErrNotAdmin
	}
	if !model.ValidDayStatus(status) {
		return nil, fmt.Errorf("unknown day status %q", status)
	}
	if priceOverrideCents != nil && *priceOverrideCents <= 0 {
		return nil, fmt.Errorf("price override must be positive")
	}
	if _, err := l.store.Room(ctx, roomID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fetchErr("room", err)
	}

	day := calendar.Day(date)
	row := model.RoomDayStatus{
		RoomID:             roomID,
		Date:               day,
		Status:             status,
		PriceOverrideCents: priceOverrideCents,
	}
	if err := l.store.UpsertDayStatus(ctx, row); err != nil {
		return nil, writeErr("room_availability", err)
	}

	contradictions := l.contradictions(ctx, roomID, day, status)
	for _, id := range contradictions {
		log.Printf("ledger: room %d day %s set to %q while reservation %d occupies it",
			roomID, calendar.FormatDay(day), status, id)
	}

	l.notify.AvailabilityChanged(ctx, "room_availability", roomID)
	return contradictions, nil
}

// contradictions lists active reservations occupying day when the
// new status disagrees with them. A lookup failure only disables
// the flagging; the upsert has already succeeded.
func (l *Ledger) contradictions(ctx context.Context, roomID uint64, day time.Time, status string) []uint64 {
	if status == model.DayBooked {
		return nil
	}
	reservations, err := l.store.ActiveReservations(ctx, roomID, day, day)
	if err != nil {
		log.Printf("ledger: contradiction check for room %d failed: %v", roomID, err)
		return nil
	}
	var ids []uint64
	for _, res := range reservations {
		for _, night := range calendar.EnumerateNights(res.CheckIn, res.CheckOut) {
			if night.Equal(day) {
				ids = append(ids, res.ID)
				break
			}
		}
	}
	return ids
}
