package engine

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// memStore is an in-memory Store used by the engine tests. It
// mirrors the contract of the MySQL implementation, including the
// night-exclusion and idempotency-key constraints, so the race
// paths are testable without a database.
type memStore struct {
	mu           sync.Mutex
	rooms        map[uint64]model.Room
	ledger       map[uint64]map[string]model.RoomDayStatus
	reservations []model.Reservation
	nextID       uint64

	fetchErr error // when set, every read fails with it
	writeErr error // when set, every write fails with it
}

func newMemStore() *memStore {
	return &memStore{
		rooms:  make(map[uint64]model.Room),
		ledger: make(map[uint64]map[string]model.RoomDayStatus),
	}
}

func (s *memStore) addRoom(r model.Room) { s.rooms[r.ID] = r }

func (s *memStore) addReservation(r model.Reservation) {
	s.nextID++
	r.ID = s.nextID
	s.reservations = append(s.reservations, r)
}

func (s *memStore) setDay(roomID uint64, day time.Time, status string, override *int64) {
	if s.ledger[roomID] == nil {
		s.ledger[roomID] = make(map[string]model.RoomDayStatus)
	}
	s.ledger[roomID][calendar.FormatDay(day)] = model.RoomDayStatus{
		RoomID:             roomID,
		Date:               calendar.Day(day),
		Status:             status,
		PriceOverrideCents: override,
	}
}

func (s *memStore) Room(_ context.Context, roomID uint64) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return model.Room{}, s.fetchErr
	}
	r, ok := s.rooms[roomID]
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return r, nil
}

func (s *memStore) DayStatuses(_ context.Context, roomID uint64, from, to time.Time) ([]model.RoomDayStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []model.RoomDayStatus
	for _, row := range s.ledger[roomID] {
		if !row.Date.Before(from) && !row.Date.After(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memStore) ActiveReservations(_ context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.RoomID != roomID || !model.ActiveReservationStatus(r.Status) {
			continue
		}
		// [check_in, check_out) intersects the inclusive window
		if r.CheckIn.After(to) || !r.CheckOut.After(from) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) UpsertDayStatus(_ context.Context, row model.RoomDayStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.ledger[row.RoomID] == nil {
		s.ledger[row.RoomID] = make(map[string]model.RoomDayStatus)
	}
	s.ledger[row.RoomID][calendar.FormatDay(row.Date)] = row
	return nil
}

func (s *memStore) CreateReservation(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for _, existing := range s.reservations {
		if existing.IdempotencyKey == res.IdempotencyKey {
			return ErrDuplicateReservation
		}
	}
	wanted := make(map[string]struct{})
	for _, n := range calendar.EnumerateNights(res.CheckIn, res.CheckOut) {
		wanted[calendar.FormatDay(n)] = struct{}{}
	}
	for _, existing := range s.reservations {
		if existing.RoomID != res.RoomID || !model.ActiveReservationStatus(existing.Status) {
			continue
		}
		for _, n := range calendar.EnumerateNights(existing.CheckIn, existing.CheckOut) {
			if _, clash := wanted[calendar.FormatDay(n)]; clash {
				return ErrNightTaken
			}
		}
	}
	s.nextID++
	res.ID = s.nextID
	res.CreatedAt = time.Now().UTC()
	s.reservations = append(s.reservations, *res)
	return nil
}

func (s *memStore) ReservationByIdempotencyKey(_ context.Context, key string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return model.Reservation{}, s.fetchErr
	}
	for _, r := range s.reservations {
		if r.IdempotencyKey == key {
			return r, nil
		}
	}
	return model.Reservation{}, ErrReservationNotFound
}

// staticAuth is an Authorizer backed by a fixed admin set.
type staticAuth struct{ admins map[uint64]bool }

func (a staticAuth) IsAdmin(_ context.Context, userID uint64) (bool, error) {
	return a.admins[userID], nil
}

// recordingNotifier counts change notifications per table.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) AvailabilityChanged(_ context.Context, table string, _ uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, table)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}
