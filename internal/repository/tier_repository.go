package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samaevent/ticketing-api/internal/model"
)

// TierRepo is the inventory ledger for ticket tiers. The `available`
// column is the single source of truth for sellable stock and is only
// ever mutated through the ...Tx methods below, inside a transaction
// that holds the tier's row lock. `quantity` is never mutated here.
type TierRepo struct {
	db *sql.DB
}

// NewTierRepo returns a new TierRepo bound to the given database.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TierRepo) DB() *sql.DB { return r.db }

// Create inserts a ticket tier for an event. Available starts equal to
// quantity; both must be non-negative.
func (r *TierRepo) Create(ctx context.Context, t *model.TicketTier) error {
	const q = `INSERT INTO ticket_tiers (event_id, name, price, quantity, available, promo_type, promo_value, promo_code)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.EventID, t.Name, t.Price, t.Quantity, t.Quantity, string(t.PromoType), t.PromoValue, t.PromoCode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Available = t.Quantity
	return nil
}

// LockForUpdateTx loads a tier row with an exclusive row lock
// (SELECT ... FOR UPDATE). The lock is held until the surrounding
// transaction commits or rolls back, serializing every concurrent
// read-check-write sequence against the same tier. Callers must pass
// the transaction they intend to mutate the row in.
func (r *TierRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, tierID uint64) (*model.TicketTier, error) {
	const q = `SELECT id, event_id, name, price, quantity, available, promo_type, promo_value, promo_code
	           FROM ticket_tiers WHERE id = ? FOR UPDATE`
	var t model.TicketTier
	var promoType string
	var promoCode sql.NullString
	err := tx.QueryRowContext(ctx, q, tierID).Scan(
		&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity, &t.Available,
		&promoType, &t.PromoValue, &promoCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTierNotFound
	}
	if err != nil {
		return nil, err
	}
	t.PromoType = model.ParsePromoType(promoType)
	if promoCode.Valid {
		t.PromoCode = promoCode.String
	}
	return &t, nil
}

// ReserveTx decrements a tier's available counter by qty. The caller
// must already hold the row lock via LockForUpdateTx in the same
// transaction; the WHERE clause re-checks availability as a final
// guard so the counter can never go negative even on a misuse.
func (r *TierRepo) ReserveTx(ctx context.Context, tx *sql.Tx, tierID uint64, qty int64) error {
	if qty <= 0 {
		return ErrConflict
	}
	const q = `UPDATE ticket_tiers SET available = available - ? WHERE id = ? AND available >= ?`
	res, err := tx.ExecContext(ctx, q, qty, tierID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseTx returns qty units to a tier's available counter, clamped
// at quantity to tolerate a defensive double-release. Callers must not
// rely on the clamp; the booking state machine guards against
// releasing the same booking twice.
func (r *TierRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, tierID uint64, qty int64) error {
	if qty <= 0 {
		return nil
	}
	const q = `UPDATE ticket_tiers SET available = LEAST(quantity, available + ?) WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, qty, tierID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTierNotFound
	}
	return nil
}

// Peek returns a tier's current available counter without locking.
// Display purposes only; every mutation path re-reads under lock.
func (r *TierRepo) Peek(ctx context.Context, tierID uint64) (int64, error) {
	var available int64
	err := r.db.QueryRowContext(ctx,
		`SELECT available FROM ticket_tiers WHERE id = ?`, tierID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTierNotFound
	}
	return available, err
}

// ListByEvent returns all tiers of an event ordered by id. Unlocked
// read used by browse and back-office listings.
func (r *TierRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TicketTier, error) {
	const q = `SELECT id, event_id, name, price, quantity, available, promo_type, promo_value, promo_code, created_at, updated_at
	           FROM ticket_tiers WHERE event_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tiers := make([]model.TicketTier, 0)
	for rows.Next() {
		var t model.TicketTier
		var promoType string
		var promoCode sql.NullString
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.Quantity, &t.Available,
			&promoType, &t.PromoValue, &promoCode, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.PromoType = model.ParsePromoType(promoType)
		if promoCode.Valid {
			t.PromoCode = promoCode.String
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
