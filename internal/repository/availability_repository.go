package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// AvailabilityRepo persists the per-room, per-day availability
// ledger in the room_availability table. The (room_id, date) pair
// carries a UNIQUE index; Upsert relies on it so that a day's
// status and price override are always replaced together in one
// statement.
//
// Expected schema:
//
//	CREATE TABLE room_availability (
//	  id                   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  room_id              BIGINT UNSIGNED NOT NULL,
//	  date                 DATE NOT NULL,
//	  status               ENUM('available','booked','blocked') NOT NULL,
//	  price_override_cents BIGINT NULL,
//	  created_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//	  updated_at           TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
//	  UNIQUE KEY uq_room_date (room_id, date)
//	)
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns an AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// ListForRange returns the ledger rows for a room with
// from <= date <= to, ordered by date.
func (r *AvailabilityRepo) ListForRange(ctx context.Context, roomID uint64, from, to time.Time) ([]model.RoomDayStatus, error) {
	const q = `SELECT id, room_id, date, status, price_override_cents, created_at, updated_at
	           FROM room_availability
	           WHERE room_id = ? AND date >= ? AND date <= ?
	           ORDER BY date`
	rows, err := r.db.QueryContext(ctx, q, roomID, calendar.FormatDay(from), calendar.FormatDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomDayStatus, 0)
	for rows.Next() {
		var row model.RoomDayStatus
		var override sql.NullInt64
		if err := rows.Scan(
			&row.ID, &row.RoomID, &row.Date, &row.Status,
			&override, &row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if override.Valid {
			v := override.Int64
			row.PriceOverrideCents = &v
		}
		row.Date = calendar.Day(row.Date)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Upsert writes the ledger row keyed by (room_id, date). Status and
// price override are replaced together; an absent override clears
// any previously stored one.
func (r *AvailabilityRepo) Upsert(ctx context.Context, row model.RoomDayStatus) error {
	const q = `INSERT INTO room_availability (room_id, date, status, price_override_cents)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE status = VALUES(status),
	                                   price_override_cents = VALUES(price_override_cents)`
	var override sql.NullInt64
	if row.PriceOverrideCents != nil {
		override = sql.NullInt64{Int64: *row.PriceOverrideCents, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, row.RoomID, calendar.FormatDay(row.Date), row.Status, override)
	return err
}

// markBookedTx flags the given nights as booked inside an admission
// transaction. Unlike Upsert it leaves any stored price override in
// place: the admission side effect records occupancy, it does not
// reprice days.
func markBookedTx(ctx context.Context, tx *sql.Tx, roomID uint64, nights []time.Time) error {
	if len(nights) == 0 {
		return nil
	}
	query := `INSERT INTO room_availability (room_id, date, status) VALUES `
	args := make([]interface{}, 0, len(nights)*3)
	for i, night := range nights {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, roomID, calendar.FormatDay(night), model.DayBooked)
	}
	query += ` ON DUPLICATE KEY UPDATE status = VALUES(status)`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
