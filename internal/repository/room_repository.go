package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// RoomRepo provides read access to the rooms table. Rooms are
// reference data for the booking engine: created and edited by the
// catalog service, only read here.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle for callers that need to open
// transactions spanning multiple repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

// GetByID loads a single room. It returns engine.ErrRoomNotFound
// when no row exists.
func (r *RoomRepo) GetByID(ctx context.Context, roomID uint64) (model.Room, error) {
	const q = `SELECT id, hotel_id, name, price_per_night_cents, is_active, created_at, updated_at
	           FROM rooms WHERE id = ?`
	var room model.Room
	err := r.db.QueryRowContext(ctx, q, roomID).Scan(
		&room.ID, &room.HotelID, &room.Name, &room.PricePerNightCents,
		&room.IsActive, &room.CreatedAt, &room.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, engine.ErrRoomNotFound
	}
	if err != nil {
		return model.Room{}, err
	}
	return room, nil
}

// ListActive returns all active rooms ordered by id. Used by the
// public browse endpoint; inactive rooms are hidden entirely.
func (r *RoomRepo) ListActive(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT id, hotel_id, name, price_per_night_cents, is_active, created_at, updated_at
	           FROM rooms WHERE is_active = 1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(
			&room.ID, &room.HotelID, &room.Name, &room.PricePerNightCents,
			&room.IsActive, &room.CreatedAt, &room.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
