// Package queue defines message payloads exchanged over the message broker.
package queue

// AvailabilityChangedEvent signals that a room's availability inputs
// changed: a booking was admitted or cancelled, or an admin edited the
// calendar. It deliberately carries no availability data; consumers
// re-resolve from the database, which is the only authority. RoomID
// zero means the scope is unknown and every room should refresh.
type AvailabilityChangedEvent struct {
	Table      string `json:"table"`
	RoomID     uint64 `json:"room_id"`
	OccurredAt string `json:"occurred_at"`
}

// BookingAdmittedEvent is published when a booking passes admission.
// It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type BookingAdmittedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	RoomID          uint64 `json:"room_id"`
	UserID          uint64 `json:"user_id"`
	GuestName       string `json:"guest_name"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Nights          int    `json:"nights"`
	TotalPriceCents int64  `json:"total_price_cents"`
	Status          string `json:"status"`
	AdmittedAt      string `json:"admitted_at"`
}
