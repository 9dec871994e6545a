package model

import "time"

// Reservation statuses. Only pending and confirmed reservations
// occupy their date span; cancelled ones are inert. Reservations
// are never deleted once created (audit trail); cancellation is a
// status transition.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// ActiveReservationStatus reports whether s blocks other bookings.
func ActiveReservationStatus(s string) bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// ValidStatusTransition reports whether a booking may move from one
// status to another. Cancellation is terminal: a cancelled booking
// has released its nights, and another booking may have claimed them
// since, so reactivating it could put two active stays on the same
// night.
func ValidStatusTransition(from, to string) bool {
	if from == to {
		return true
	}
	return from != ReservationCancelled
}

// Reservation records a guest's stay request for a room over the
// half-open interval [CheckIn, CheckOut). TotalPriceCents is
// computed once at admission time and never recomputed: a booking's
// price is a snapshot, immune to later rate changes.
//
// Fields:
//  ID              – primary key identifier.
//  RoomID          – room being booked.
//  UserID          – authenticated user who submitted the booking.
//  GuestName       – name of the staying guest.
//  GuestEmail      – contact email.
//  GuestPhone      – contact phone.
//  GuestsCount     – number of guests, minimum 1.
//  SpecialRequests – optional free-text wishes.
//  CheckIn         – arrival day (first occupied night).
//  CheckOut        – departure day (first free day; exclusive).
//  Status          – pending, confirmed or cancelled.
//  TotalPriceCents – nights × effective nightly rate, snapshotted.
//  IdempotencyKey  – unique key making the admission write retry-safe.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64    // bookings.id
	RoomID          uint64    // bookings.room_id
	UserID          uint64    // bookings.user_id
	GuestName       string    // bookings.guest_name
	GuestEmail      string    // bookings.guest_email
	GuestPhone      string    // bookings.guest_phone
	GuestsCount     int       // bookings.guests_count
	SpecialRequests *string   // bookings.special_requests (nullable)
	CheckIn         time.Time // bookings.check_in
	CheckOut        time.Time // bookings.check_out
	Status          string    // bookings.status
	TotalPriceCents int64     // bookings.total_price_cents
	IdempotencyKey  string    // bookings.idempotency_key
	CreatedAt       time.Time // bookings.created_at
	UpdatedAt       time.Time // bookings.updated_at
}
