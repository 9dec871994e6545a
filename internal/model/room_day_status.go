package model

import "time"

// Day statuses recorded in the availability ledger. Absence of a
// row for a day means "no explicit override"; the resolver falls
// back to the deployment's default policy.
const (
	DayAvailable = "available"
	DayBooked    = "booked"
	DayBlocked   = "blocked"
)

// ValidDayStatus reports whether s is one of the three ledger statuses.
func ValidDayStatus(s string) bool {
	return s == DayAvailable || s == DayBooked || s == DayBlocked
}

// RoomDayStatus is one row of the per-room, per-day availability
// ledger (`room_availability` table). At most one row exists per
// (room_id, date); the pair carries a UNIQUE index and writes
// replace status and price override together.
//
// Fields:
//  ID                 – primary key identifier.
//  RoomID             – room the entry belongs to.
//  Date               – calendar day, stored date-only, UTC midnight in memory.
//  Status             – one of available, booked, blocked.
//  PriceOverrideCents – optional nightly rate overriding the room base rate.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type RoomDayStatus struct {
	ID                 uint64    // room_availability.id
	RoomID             uint64    // room_availability.room_id
	Date               time.Time // room_availability.date
	Status             string    // room_availability.status
	PriceOverrideCents *int64    // room_availability.price_override_cents (nullable)
	CreatedAt          time.Time // room_availability.created_at
	UpdatedAt          time.Time // room_availability.updated_at
}
