package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// Resolution is the resolved bookable view of one room over one
// calendar month: the days a stay could begin on and the effective
// nightly price for each of them. It is a pure function of the
// ledger rows, the active reservations and the window at the
// instant of computation and carries no temporal guarantee beyond
// "correct as of last fetch".
type Resolution struct {
	RoomID        uint64           `json:"room_id"`
	Month         string           `json:"month"` // YYYY-MM
	BookableDates []string         `json:"bookable_dates"`
	PriceByDate   map[string]int64 `json:"price_by_date"`
}

// Resolver computes bookable day sets by combining the availability
// ledger with the active reservation set.
//
// OptIn selects the deployment's ledger policy and is applied
// uniformly: when false (the default) any day not occupied by an
// active reservation and not explicitly blocked is bookable; when
// true a day must additionally carry an explicit `available` ledger
// row.
type Resolver struct {
	store Store
	optIn bool
}

// NewResolver builds a Resolver over the given store. optIn selects
// the opt-in ledger policy described on the Resolver type.
func NewResolver(store Store, optIn bool) *Resolver {
	return &Resolver{store: store, optIn: optIn}
}

// Resolve computes the bookable day set for a room over the
// calendar month containing monthAnchor. Inactive rooms resolve to
// an empty set. Any store failure aborts the whole resolution: no
// partial result is ever returned.
func (r *Resolver) Resolve(ctx context.Context, roomID uint64, monthAnchor time.Time) (*Resolution, error) {
	first, last := calendar.MonthBounds(monthAnchor)
	view, err := r.resolveWindow(ctx, roomID, first, last)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(view))
	for d := range view {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return &Resolution{
		RoomID:        roomID,
		Month:         first.Format("2006-01"),
		BookableDates: dates,
		PriceByDate:   view,
	}, nil
}

// ResolveSpan computes the bookable view over an arbitrary
// inclusive day window. Admission uses it to re-check a requested
// stay at submission time; the returned map holds the effective
// nightly price for every bookable day in the window.
func (r *Resolver) ResolveSpan(ctx context.Context, roomID uint64, from, to time.Time) (map[string]int64, error) {
	return r.resolveWindow(ctx, roomID, calendar.Day(from), calendar.Day(to))
}

// resolveWindow is the single resolution algorithm behind Resolve
// and ResolveSpan: build the occupied set from the active
// reservations, the blocked set from the ledger, subtract both from
// the window and price what remains.
func (r *Resolver) resolveWindow(ctx context.Context, roomID uint64, first, last time.Time) (map[string]int64, error) {
	room, err := r.store.Room(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
		return nil, fetchErr("room", err)
	}
	if !room.IsActive {
		return map[string]int64{}, nil
	}

	rows, err := r.store.DayStatuses(ctx, roomID, first, last)
	if err != nil {
		return nil, fetchErr("room_availability", err)
	}
	reservations, err := r.store.ActiveReservations(ctx, roomID, first, last)
	if err != nil {
		return nil, fetchErr("bookings", err)
	}

	ledger := make(map[string]model.RoomDayStatus, len(rows))
	for _, row := range rows {
		ledger[calendar.FormatDay(row.Date)] = row
	}

	occupied := make(map[string]struct{})
	for _, res := range reservations {
		for _, night := range calendar.EnumerateNights(res.CheckIn, res.CheckOut) {
			if night.Before(first) || night.After(last) {
				continue
			}
			occupied[calendar.FormatDay(night)] = struct{}{}
		}
	}

	view := make(map[string]int64)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := calendar.FormatDay(d)
		if _, taken := occupied[key]; taken {
			continue
		}
		row, hasRow := ledger[key]
		if hasRow && row.Status == model.DayBlocked {
			continue
		}
		if r.optIn && (!hasRow || row.Status != model.DayAvailable) {
			continue
		}
		price := room.PricePerNightCents
		if hasRow && row.PriceOverrideCents != nil {
			price = *row.PriceOverrideCents
		}
		view[key] = price
	}
	return view, nil
}
