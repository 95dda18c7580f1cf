package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samaevent/ticketing-api/internal/model"
)

// BookingRepo provides persistence for bookings. Creation and every
// status transition run inside a caller-managed transaction together
// with the matching inventory mutation; the two must never commit
// separately.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking row within the caller's transaction. The
// tier's available counter must already have been decremented in the
// same transaction. The generated ID is written back to b.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (reference, event_id, tier_id, quantity, amount, status, buyer_name, buyer_email, buyer_phone, method)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var tierID interface{}
	if b.TierID != 0 {
		tierID = b.TierID
	}
	res, err := tx.ExecContext(ctx, q,
		b.Reference, b.EventID, tierID, b.Quantity, b.Amount, b.Status,
		b.BuyerName, b.BuyerEmail, b.BuyerPhone, b.Method)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetForUpdateTx loads a booking with an exclusive row lock so that
// concurrent cancel/restore/check-in calls against the same booking
// serialize. Lock order is booking row first, then tier row; every
// caller follows the same order.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
	const q = `SELECT id, reference, event_id, tier_id, quantity, amount, status,
	                  buyer_name, buyer_email, buyer_phone, method, checked_in, checked_in_at, created_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, bookingID))
}

// GetByID loads a booking without locking, for read-only display.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	const q = `SELECT id, reference, event_id, tier_id, quantity, amount, status,
	                  buyer_name, buyer_email, buyer_phone, method, checked_in, checked_in_at, created_at
	           FROM bookings WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, bookingID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *BookingRepo) scanOne(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var tierID sql.NullInt64
	var checkedInAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.Reference, &b.EventID, &tierID, &b.Quantity, &b.Amount, &b.Status,
		&b.BuyerName, &b.BuyerEmail, &b.BuyerPhone, &b.Method, &b.CheckedIn, &checkedInAt, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if tierID.Valid {
		b.TierID = uint64(tierID.Int64)
	}
	if checkedInAt.Valid {
		ts := checkedInAt.Time
		b.CheckedInAt = &ts
	}
	return &b, nil
}

// SetStatusTx updates a booking's status within the caller's
// transaction. The matching reserve/release must run in the same
// transaction.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, status, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// SetCheckInTx writes the check-in flag and timestamp. checkedInAt is
// nil when toggling off.
func (r *BookingRepo) SetCheckInTx(ctx context.Context, tx *sql.Tx, bookingID uint64, checkedIn bool, checkedInAt *time.Time) error {
	var ts interface{}
	if checkedInAt != nil {
		ts = checkedInAt.UTC().Format("2006-01-02 15:04:05")
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET checked_in = ?, checked_in_at = ? WHERE id = ?`,
		checkedIn, ts, bookingID)
	return err
}

// ListByEvent returns all bookings of an event, newest first.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	const q = `SELECT id, reference, event_id, tier_id, quantity, amount, status,
	                  buyer_name, buyer_email, buyer_phone, method, checked_in, checked_in_at, created_at
	           FROM bookings WHERE event_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, eventID)
}

// ListByBuyerEmail returns all bookings carrying the given buyer
// email, newest first. Customers see their own purchases through this.
func (r *BookingRepo) ListByBuyerEmail(ctx context.Context, email string) ([]model.Booking, error) {
	const q = `SELECT id, reference, event_id, tier_id, quantity, amount, status,
	                  buyer_name, buyer_email, buyer_phone, method, checked_in, checked_in_at, created_at
	           FROM bookings WHERE buyer_email = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, email)
}

func (r *BookingRepo) list(ctx context.Context, query string, arg interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		var tierID sql.NullInt64
		var checkedInAt sql.NullTime
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.EventID, &tierID, &b.Quantity, &b.Amount, &b.Status,
			&b.BuyerName, &b.BuyerEmail, &b.BuyerPhone, &b.Method, &b.CheckedIn, &checkedInAt, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if tierID.Valid {
			b.TierID = uint64(tierID.Int64)
		}
		if checkedInAt.Valid {
			ts := checkedInAt.Time
			b.CheckedInAt = &ts
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
