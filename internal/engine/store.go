// Package engine implements the availability and booking
// consistency core: resolving which days of a month are bookable
// for a room, admitting new bookings against that resolution, the
// admin-facing availability ledger and the change-driven watcher
// that keeps resolved views live.
//
// The engine does not own persistence. It defines the Store
// contract below; the repository package implements it against
// MySQL and tests implement it in memory. Any resolver output is a
// derived, invalidatable view, never authoritative.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// Sentinel errors a Store implementation must report. They are part
// of the contract: admission relies on ErrNightTaken being raised
// by the storage layer itself (a uniqueness constraint over
// occupied nights), not by any in-process check, and on
// ErrDuplicateReservation to make retried writes safe.
var (
	// ErrRoomNotFound is returned when a referenced room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNightTaken is returned by CreateReservation when the write
	// would give two active reservations the same room night. This is
	// the authoritative conflict signal; the resolver pre-check is
	// only a fast filter.
	ErrNightTaken = errors.New("night already taken")

	// ErrDuplicateReservation is returned by CreateReservation when a
	// reservation with the same idempotency key already exists.
	ErrDuplicateReservation = errors.New("reservation already exists for idempotency key")

	// ErrReservationNotFound is returned by ReservationByIdempotencyKey
	// when no reservation carries the key.
	ErrReservationNotFound = errors.New("reservation not found")
)

// Store is the persistence contract the engine runs against.
// Windows are inclusive on both ends and expressed as UTC-midnight
// days. Reads taken by one resolution are not guaranteed to be a
// single atomic snapshot; admission correctness therefore rests on
// CreateReservation's exclusion constraint, not on read ordering.
type Store interface {
	// Room loads read-only room reference data. Returns ErrRoomNotFound
	// when no such room exists.
	Room(ctx context.Context, roomID uint64) (model.Room, error)

	// DayStatuses returns the ledger rows for a room with from <= date <= to.
	DayStatuses(ctx context.Context, roomID uint64, from, to time.Time) ([]model.RoomDayStatus, error)

	// ActiveReservations returns pending/confirmed reservations for a
	// room whose [check_in, check_out) interval intersects [from, to].
	ActiveReservations(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error)

	// UpsertDayStatus writes a ledger row keyed by (room_id, date),
	// replacing status and price override together as one row write.
	UpsertDayStatus(ctx context.Context, row model.RoomDayStatus) error

	// CreateReservation persists a new reservation atomically with its
	// occupied nights. Implementations must enforce the per-room
	// night-exclusion constraint (ErrNightTaken) and the idempotency
	// key uniqueness (ErrDuplicateReservation), and populate the
	// generated ID on success.
	CreateReservation(ctx context.Context, res *model.Reservation) error

	// ReservationByIdempotencyKey recovers the reservation written by
	// an earlier attempt carrying the same key. Returns
	// ErrReservationNotFound when no such reservation exists.
	ReservationByIdempotencyKey(ctx context.Context, key string) (model.Reservation, error)
}

// Authorizer is the external authorization collaborator. The engine
// consults it before ledger mutations; it never manages users
// itself.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID uint64) (bool, error)
}

// Notifier publishes a payload-less change notification after a
// successful write so that watchers (possibly in other processes)
// invalidate and recompute. Implementations log and swallow
// transport failures; a missed notification only delays a refresh.
type Notifier interface {
	AvailabilityChanged(ctx context.Context, table string, roomID uint64)
}

// NopNotifier is a Notifier that does nothing. Useful for tests and
// for running without a message broker.
type NopNotifier struct{}

func (NopNotifier) AvailabilityChanged(context.Context, string, uint64) {}
