package model

import "time"

// Room represents a bookable hotel room as stored in the `rooms`
// table. The booking engine treats rooms as read-only reference
// data: hotel/room administration happens outside this service and
// only the base rate and active flag matter for availability
// resolution and admission.
//
// Fields:
//  ID                  – primary key identifier.
//  HotelID             – hotel the room belongs to (reference only).
//  Name                – display name of the room.
//  PricePerNightCents  – base nightly rate in minor currency units.
//  IsActive            – inactive rooms are never bookable.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Room struct {
	ID                 uint64    // rooms.id
	HotelID            uint64    // rooms.hotel_id
	Name               string    // rooms.name
	PricePerNightCents int64     // rooms.price_per_night_cents
	IsActive           bool      // rooms.is_active
	CreatedAt          time.Time // rooms.created_at
	UpdatedAt          time.Time // rooms.updated_at
}
