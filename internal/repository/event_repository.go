package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samaevent/ticketing-api/internal/model"
)

// EventRepo provides persistence for events. Ownership checks for
// every booking mutation resolve through this table, so the repo
// exposes both plain and in-transaction owner lookups.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts an event owned by the given organizer.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (organizer_id, title, venue, starts_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.OrganizerID, e.Title, e.Venue, e.StartsAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID loads a single event.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (*model.Event, error) {
	const q = `SELECT id, organizer_id, title, venue, starts_at, created_at, updated_at
	           FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// OwnerID returns the organizer owning an event, or ErrEventNotFound.
func (r *EventRepo) OwnerID(ctx context.Context, eventID uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEventNotFound
	}
	return ownerID, err
}

// OwnerIDTx is OwnerID inside an existing transaction, used when the
// ownership check must see the same snapshot as the mutation.
func (r *EventRepo) OwnerIDTx(ctx context.Context, tx *sql.Tx, eventID uint64) (uint64, error) {
	var ownerID uint64
	err := tx.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEventNotFound
	}
	return ownerID, err
}

// ListByOrganizer returns all events owned by an organizer, newest
// first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
	const q = `SELECT id, organizer_id, title, venue, starts_at, created_at, updated_at
	           FROM events WHERE organizer_id = ? ORDER BY starts_at DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// OwnsAll reports whether every event in ids belongs to the organizer.
// Used when assigning an agent's event scope. An empty list is
// trivially owned.
func (r *EventRepo) OwnsAll(ctx context.Context, organizerID uint64, ids []uint64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	query := `SELECT COUNT(*) FROM events WHERE organizer_id = ? AND id IN (`
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, organizerID)
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count == len(ids), nil
}

// SettledRevenueTx sums the amounts of settled bookings across all of
// an organizer's events, inside the caller's transaction. This is one
// half of the wallet balance; see PayoutRepo.OutstandingTx for the
// other.
func (r *EventRepo) SettledRevenueTx(ctx context.Context, tx *sql.Tx, organizerID uint64) (int64, error) {
	const q = `SELECT COALESCE(SUM(b.amount), 0)
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE e.organizer_id = ? AND b.status IN (?, ?)`
	var total int64
	err := tx.QueryRowContext(ctx, q, organizerID, model.BookingPaid, model.BookingConfirmed).Scan(&total)
	return total, err
}
