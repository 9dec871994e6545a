package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// Store bundles the room, availability and booking repositories
// behind the engine's persistence contract. It is what the engine
// runs against in production; tests use an in-memory double.
type Store struct {
	Rooms        *RoomRepo
	Availability *AvailabilityRepo
	Bookings     *BookingRepo
}

// NewStore wires a Store over a shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Rooms:        NewRoomRepo(db),
		Availability: NewAvailabilityRepo(db),
		Bookings:     NewBookingRepo(db),
	}
}

var _ engine.Store = (*Store)(nil)

func (s *Store) Room(ctx context.Context, roomID uint64) (model.Room, error) {
	return s.Rooms.GetByID(ctx, roomID)
}

func (s *Store) DayStatuses(ctx context.Context, roomID uint64, from, to time.Time) ([]model.RoomDayStatus, error) {
	return s.Availability.ListForRange(ctx, roomID, from, to)
}

func (s *Store) ActiveReservations(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error) {
	return s.Bookings.ListActiveOverlapping(ctx, roomID, from, to)
}

func (s *Store) UpsertDayStatus(ctx context.Context, row model.RoomDayStatus) error {
	return s.Availability.Upsert(ctx, row)
}

func (s *Store) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return s.Bookings.Create(ctx, res)
}

func (s *Store) ReservationByIdempotencyKey(ctx context.Context, key string) (model.Reservation, error) {
	res, err := s.Bookings.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return model.Reservation{}, engine.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return *res, nil
}
