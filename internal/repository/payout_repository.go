package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samaevent/ticketing-api/internal/model"
)

// PayoutRepo provides persistence for payout requests. Requests are
// append-only; admins move them through their lifecycle but never
// delete them, so the outstanding sum can always be recomputed.
type PayoutRepo struct {
	db *sql.DB
}

// NewPayoutRepo returns a new PayoutRepo bound to the given database.
func NewPayoutRepo(db *sql.DB) *PayoutRepo { return &PayoutRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *PayoutRepo) DB() *sql.DB { return r.db }

// LockOrganizerTx takes an exclusive lock on the organizer's users row.
// Payout requests for the same organizer serialize on this lock, so
// two concurrent requests cannot both pass the balance check against a
// stale sum. Different organizers never contend.
func (r *PayoutRepo) LockOrganizerTx(ctx context.Context, tx *sql.Tx, organizerID uint64) error {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = ? FOR UPDATE`, organizerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	return err
}

// OutstandingTx sums the amounts of payouts that still count against
// the organizer's balance (pending, approved, processing, paid), inside
// the caller's transaction.
func (r *PayoutRepo) OutstandingTx(ctx context.Context, tx *sql.Tx, organizerID uint64) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE organizer_id = ? AND status IN (`
	args := make([]interface{}, 0, len(model.OutstandingPayoutStatuses)+1)
	args = append(args, organizerID)
	for i, s := range model.OutstandingPayoutStatuses {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, s)
	}
	query += ")"
	var total int64
	err := tx.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

// CreateTx inserts a pending payout request within the caller's
// transaction. The generated ID is written back to p.
func (r *PayoutRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payout) error {
	const q = `INSERT INTO payouts (organizer_id, amount, method, destination, status, note)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		p.OrganizerID, p.Amount, p.Method, p.Destination, model.PayoutPending, p.Note)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.PayoutPending
	return nil
}

// GetForUpdateTx loads a payout with an exclusive row lock so that two
// admins transitioning the same request serialize.
func (r *PayoutRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, payoutID uint64) (*model.Payout, error) {
	const q = `SELECT id, organizer_id, amount, method, destination, status, note, created_at, updated_at
	           FROM payouts WHERE id = ? FOR UPDATE`
	var p model.Payout
	err := tx.QueryRowContext(ctx, q, payoutID).Scan(
		&p.ID, &p.OrganizerID, &p.Amount, &p.Method, &p.Destination, &p.Status, &p.Note,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetStatusTx updates a payout's status and note within the caller's
// transaction.
func (r *PayoutRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, payoutID uint64, status, note string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE payouts SET status = ?, note = ? WHERE id = ?`, status, note, payoutID)
	return err
}

// ListByOrganizer returns an organizer's payout requests, newest first.
func (r *PayoutRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Payout, error) {
	const q = `SELECT id, organizer_id, amount, method, destination, status, note, created_at, updated_at
	           FROM payouts WHERE organizer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payouts := make([]model.Payout, 0)
	for rows.Next() {
		var p model.Payout
		if err := rows.Scan(&p.ID, &p.OrganizerID, &p.Amount, &p.Method, &p.Destination,
			&p.Status, &p.Note, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// ListAll returns every payout request joined with the organizer's
// email, newest first. Admin console listing.
func (r *PayoutRepo) ListAll(ctx context.Context) ([]model.Payout, error) {
	const q = `SELECT p.id, p.organizer_id, u.email, p.amount, p.method, p.destination, p.status, p.note, p.created_at, p.updated_at
	           FROM payouts p
	           JOIN users u ON u.id = p.organizer_id
	           ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payouts := make([]model.Payout, 0)
	for rows.Next() {
		var p model.Payout
		if err := rows.Scan(&p.ID, &p.OrganizerID, &p.OrganizerEmail, &p.Amount, &p.Method,
			&p.Destination, &p.Status, &p.Note, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
