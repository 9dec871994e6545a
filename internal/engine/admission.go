package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// Draft is a booking request as submitted by a caller, before any
// validation. IdempotencyKey may be supplied by the client to make
// a retry of the same submission safe; when empty a key is
// generated so the write itself is always idempotent-capable.
type Draft struct {
	RoomID          uint64
	UserID          uint64
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	GuestsCount     int
	SpecialRequests string
	CheckIn         time.Time
	CheckOut        time.Time
	IdempotencyKey  string
}

// Admission validates and admits booking drafts. A draft moves
// Draft -> Validated -> Admitted or is rejected with a typed error:
// *ValidationError for structural problems (storage untouched) and
// *ConflictError when the requested span is not bookable. The
// availability re-check always runs against the store at admission
// time, never against a cached resolution, and the storage-level
// night-exclusion constraint remains the final authority, so a
// conflict that slips past the re-check is still caught and
// reported the same way.
type Admission struct {
	store    Store
	resolver *Resolver
	notify   Notifier
}

// NewAdmission wires an Admission over store and resolver. notify
// may be nil when no change feed is configured.
func NewAdmission(store Store, resolver *Resolver, notify Notifier) *Admission {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Admission{store: store, resolver: resolver, notify: notify}
}

// Admit runs the full admission flow for a draft and returns the
// persisted reservation in state pending. When the draft's
// idempotency key matches an earlier successful write, that
// original reservation is returned with replayed true instead of
// creating a second one. The replay lookup runs before the
// availability pre-check: a retried submission must not conflict
// with the very nights its first attempt already claimed.
func (a *Admission) Admit(ctx context.Context, d Draft) (res *model.Reservation, replayed bool, err error) {
	room, err := a.store.Room(ctx, d.RoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, false, err
		}
		return nil, false, fetchErr("room", err)
	}
	if verr := validateDraft(d, room); verr != nil {
		return nil, false, verr
	}

	if d.IdempotencyKey != "" {
		existing, lerr := a.store.ReservationByIdempotencyKey(ctx, d.IdempotencyKey)
		switch {
		case lerr == nil:
			return &existing, true, nil
		case !errors.Is(lerr, ErrReservationNotFound):
			return nil, false, fetchErr("bookings", lerr)
		}
	}

	// Authoritative pre-check at admission time.
	view, err := a.resolver.ResolveSpan(ctx, d.RoomID, d.CheckIn, d.CheckOut.AddDate(0, 0, -1))
	if err != nil {
		return nil, false, err
	}
	nights := calendar.EnumerateNights(d.CheckIn, d.CheckOut)
	var total int64
	for _, night := range nights {
		price, ok := view[calendar.FormatDay(night)]
		if !ok {
			return nil, false, &ConflictError{Date: night}
		}
		total += price
	}

	res = &model.Reservation{
		RoomID:          d.RoomID,
		UserID:          d.UserID,
		GuestName:       strings.TrimSpace(d.GuestName),
		GuestEmail:      strings.ToLower(strings.TrimSpace(d.GuestEmail)),
		GuestPhone:      strings.TrimSpace(d.GuestPhone),
		GuestsCount:     d.GuestsCount,
		CheckIn:         calendar.Day(d.CheckIn),
		CheckOut:        calendar.Day(d.CheckOut),
		Status:          model.ReservationPending,
		TotalPriceCents: total,
		IdempotencyKey:  d.IdempotencyKey,
	}
	if sr := strings.TrimSpace(d.SpecialRequests); sr != "" {
		res.SpecialRequests = &sr
	}
	if res.IdempotencyKey == "" {
		res.IdempotencyKey = uuid.NewString()
	}

	if err := a.store.CreateReservation(ctx, res); err != nil {
		switch {
		case errors.Is(err, ErrNightTaken):
			// Lost the race after the pre-check passed. Re-resolve to
			// name the conflicting day for the caller.
			return nil, false, a.conflictFor(ctx, d, nights)
		case errors.Is(err, ErrDuplicateReservation):
			// A concurrent attempt with the same key won between our
			// lookup and the write.
			existing, lerr := a.store.ReservationByIdempotencyKey(ctx, res.IdempotencyKey)
			if lerr != nil {
				return nil, false, fetchErr("bookings", lerr)
			}
			return &existing, true, nil
		default:
			return nil, false, writeErr("bookings", err)
		}
	}

	a.notify.AvailabilityChanged(ctx, "bookings", d.RoomID)
	return res, false, nil
}

// conflictFor pins down the first conflicting date after the store
// rejected a write. When the fresh resolution no longer shows a
// gap (the competing write may already be cancelled again) the
// check-in day is reported.
func (a *Admission) conflictFor(ctx context.Context, d Draft, nights []time.Time) error {
	view, err := a.resolver.ResolveSpan(ctx, d.RoomID, d.CheckIn, d.CheckOut.AddDate(0, 0, -1))
	if err == nil {
		for _, night := range nights {
			if _, ok := view[calendar.FormatDay(night)]; !ok {
				return &ConflictError{Date: night}
			}
		}
	}
	return &ConflictError{Date: calendar.Day(d.CheckIn)}
}

// validateDraft performs the structural Draft -> Validated checks.
// It touches no storage and reports every failing field at once.
func validateDraft(d Draft, room model.Room) *ValidationError {
	var fields []FieldError
	if strings.TrimSpace(d.GuestName) == "" {
		fields = append(fields, FieldError{Field: "guest_name", Reason: "required"})
	}
	if strings.TrimSpace(d.GuestEmail) == "" {
		fields = append(fields, FieldError{Field: "guest_email", Reason: "required"})
	}
	if strings.TrimSpace(d.GuestPhone) == "" {
		fields = append(fields, FieldError{Field: "guest_phone", Reason: "required"})
	}
	if d.GuestsCount < 1 {
		fields = append(fields, FieldError{Field: "guests_count", Reason: "must be at least 1"})
	}
	if _, err := calendar.NightsBetween(d.CheckIn, d.CheckOut); err != nil {
		fields = append(fields, FieldError{Field: "check_out_date", Reason: "must be after check_in_date"})
	}
	if !room.IsActive {
		fields = append(fields, FieldError{Field: "room_id", Reason: "room is not active"})
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
