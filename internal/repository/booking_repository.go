package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-room-booking/internal/calendar"
	"github.com/iliyamo/hotel-room-booking/internal/engine"
	"github.com/iliyamo/hotel-room-booking/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number raised when an
// insert violates a unique index.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-index violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// BookingRepo provides CRUD operations for bookings and their
// per-night occupancy rows. Nights claimed by a booking are stored
// in the booking_nights table, whose UNIQUE(room_id, night) index is
// what actually prevents two bookings from holding the same night.
// All timestamp fields are assumed to be stored in UTC.
//
// Expected schema:
//
//	CREATE TABLE bookings (
//	  id                BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  room_id           BIGINT UNSIGNED NOT NULL,
//	  user_id           BIGINT UNSIGNED NOT NULL,
//	  guest_name        VARCHAR(255) NOT NULL,
//	  guest_email       VARCHAR(255) NOT NULL,
//	  guest_phone       VARCHAR(64) NOT NULL,
//	  guests_count      INT NOT NULL,
//	  special_requests  TEXT NULL,
//	  check_in          DATE NOT NULL,
//	  check_out         DATE NOT NULL,
//	  status            ENUM('pending','confirmed','cancelled') NOT NULL,
//	  total_price_cents BIGINT NOT NULL,
//	  idempotency_key   VARCHAR(64) NOT NULL,
//	  created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
//	  updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
//	  UNIQUE KEY uq_idempotency (idempotency_key)
//	)
//
//	CREATE TABLE booking_nights (
//	  booking_id BIGINT UNSIGNED NOT NULL,
//	  room_id    BIGINT UNSIGNED NOT NULL,
//	  night      DATE NOT NULL,
//	  UNIQUE KEY uq_room_night (room_id, night)
//	)
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, room_id, user_id, guest_name, guest_email, guest_phone,
	guests_count, special_requests, check_in, check_out, status,
	total_price_cents, idempotency_key, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	var special sql.NullString
	if err := row.Scan(
		&res.ID, &res.RoomID, &res.UserID, &res.GuestName, &res.GuestEmail, &res.GuestPhone,
		&res.GuestsCount, &special, &res.CheckIn, &res.CheckOut, &res.Status,
		&res.TotalPriceCents, &res.IdempotencyKey, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if special.Valid {
		s := special.String
		res.SpecialRequests = &s
	}
	res.CheckIn = calendar.Day(res.CheckIn)
	res.CheckOut = calendar.Day(res.CheckOut)
	return &res, nil
}

// Create inserts a booking and claims every night of its stay inside
// a single transaction. Either the whole stay is persisted or none
// of it is. A duplicate idempotency key surfaces as
// engine.ErrDuplicateReservation; a night already claimed by another
// booking surfaces as engine.ErrNightTaken. On success the generated
// ID and timestamps are populated on res, and the stay's nights are
// flagged booked on the availability ledger.
func (r *BookingRepo) Create(ctx context.Context, res *model.Reservation) error {
	nights := calendar.EnumerateNights(res.CheckIn, res.CheckOut)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO bookings
	             (room_id, user_id, guest_name, guest_email, guest_phone,
	              guests_count, special_requests, check_in, check_out, status,
	              total_price_cents, idempotency_key)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var special sql.NullString
	if res.SpecialRequests != nil {
		special = sql.NullString{String: *res.SpecialRequests, Valid: true}
	}
	result, err := tx.ExecContext(ctx, ins,
		res.RoomID, res.UserID, res.GuestName, res.GuestEmail, res.GuestPhone,
		res.GuestsCount, special, calendar.FormatDay(res.CheckIn), calendar.FormatDay(res.CheckOut),
		res.Status, res.TotalPriceCents, res.IdempotencyKey,
	)
	if err != nil {
		if isDuplicate(err) {
			return engine.ErrDuplicateReservation
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if len(nights) > 0 {
		query := `INSERT INTO booking_nights (booking_id, room_id, night) VALUES `
		args := make([]interface{}, 0, len(nights)*3)
		for i, night := range nights {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, res.ID, res.RoomID, calendar.FormatDay(night))
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isDuplicate(err) {
				return engine.ErrNightTaken
			}
			return err
		}
	}
	if err := markBookedTx(ctx, tx, res.RoomID, nights); err != nil {
		return err
	}

	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByIdempotencyKey returns the booking stored under the given
// idempotency key, or ErrBookingNotFound when no such booking exists.
func (r *BookingRepo) GetByIdempotencyKey(ctx context.Context, key string) (*model.Reservation, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE idempotency_key = ?`
	res, err := scanBooking(r.db.QueryRowContext(ctx, q, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return res, err
}

// GetByID returns a single booking by its ID, or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	res, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return res, err
}

// ListActiveOverlapping returns the pending and confirmed bookings of
// a room whose stay touches at least one night in from..to inclusive.
// A stay [check_in, check_out) overlaps the window when check_in <= to
// and check_out > from.
func (r *BookingRepo) ListActiveOverlapping(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE room_id = ?
	             AND status IN (?, ?)
	             AND check_in <= ? AND check_out > ?
	           ORDER BY check_in`
	rows, err := r.db.QueryContext(ctx, q,
		roomID, model.ReservationPending, model.ReservationConfirmed,
		calendar.FormatDay(to), calendar.FormatDay(from),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// ListByUser returns all bookings created by the given user, newest
// first. When no bookings exist an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE user_id = ?
	           ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a booking to the given status. Cancelling
// releases the booking's nights so the room becomes bookable again;
// the release and the status change happen in one transaction.
// Cancellation is terminal: reactivating a cancelled booking is
// rejected with ErrBookingCancelled because its released nights may
// already belong to another booking. The updated booking is
// returned, or ErrBookingNotFound when the ID does not exist.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !model.ValidStatusTransition(current, status) {
		return nil, ErrBookingCancelled
	}

	const upd = `UPDATE bookings SET status = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, status, id); err != nil {
		return nil, err
	}
	if strings.EqualFold(status, model.ReservationCancelled) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_nights WHERE booking_id = ?`, id); err != nil {
			return nil, err
		}
		// Clear the booked flag on ledger days no longer claimed by
		// any active booking. Overrides and blocks stay untouched.
		const free = `UPDATE room_availability ra
		              JOIN bookings b ON b.id = ?
		              SET ra.status = ?
		              WHERE ra.room_id = b.room_id
		                AND ra.status = ?
		                AND ra.date >= b.check_in AND ra.date < b.check_out
		                AND NOT EXISTS (
		                      SELECT 1 FROM booking_nights bn
		                      WHERE bn.room_id = ra.room_id AND bn.night = ra.date)`
		if _, err := tx.ExecContext(ctx, free, id, model.DayAvailable, model.DayBooked); err != nil {
			return nil, err
		}
	}
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	res, err := scanBooking(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}
