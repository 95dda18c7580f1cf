package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samaevent/ticketing-api/internal/model"
)

// ErrCagnotteNotFound is returned when a referenced cagnotte does not
// exist.
var ErrCagnotteNotFound = errors.New("cagnotte not found")

// CagnotteRepo provides persistence for fundraising pots and their
// contributions. The cagnotte ledger shares the transactional
// discipline of the ticket side but never touches ticket inventory.
type CagnotteRepo struct {
	db *sql.DB
}

// NewCagnotteRepo returns a new CagnotteRepo bound to the given
// database.
func NewCagnotteRepo(db *sql.DB) *CagnotteRepo { return &CagnotteRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *CagnotteRepo) DB() *sql.DB { return r.db }

// Create inserts a cagnotte in pending_validation status.
func (r *CagnotteRepo) Create(ctx context.Context, g *model.Cagnotte) error {
	const q = `INSERT INTO cagnottes (organizer_id, title, description, goal, min_contribution, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		g.OrganizerID, g.Title, g.Description, g.Goal, g.MinContribution, model.CagnottePendingValidation)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	g.Status = model.CagnottePendingValidation
	return nil
}

// GetByID loads a cagnotte without locking.
func (r *CagnotteRepo) GetByID(ctx context.Context, cagnotteID uint64) (*model.Cagnotte, error) {
	const q = `SELECT id, organizer_id, title, description, goal, min_contribution, status, created_at, updated_at
	           FROM cagnottes WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, cagnotteID))
}

// GetForUpdateTx loads a cagnotte with an exclusive row lock. Both the
// contribution path and the lifecycle transitions lock the pot first,
// so a contribution can never slip into a pot that is concurrently
// leaving the online state.
func (r *CagnotteRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, cagnotteID uint64) (*model.Cagnotte, error) {
	const q = `SELECT id, organizer_id, title, description, goal, min_contribution, status, created_at, updated_at
	           FROM cagnottes WHERE id = ? FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, cagnotteID))
}

func (r *CagnotteRepo) scanOne(row rowScanner) (*model.Cagnotte, error) {
	var g model.Cagnotte
	err := row.Scan(&g.ID, &g.OrganizerID, &g.Title, &g.Description, &g.Goal,
		&g.MinContribution, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCagnotteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SetStatusTx updates a cagnotte's status within the caller's
// transaction.
func (r *CagnotteRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, cagnotteID uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE cagnottes SET status = ? WHERE id = ?`, status, cagnotteID)
	return err
}

// CreateContributionTx inserts a pending contribution within the
// caller's transaction. The parent pot must be locked and validated
// first.
func (r *CagnotteRepo) CreateContributionTx(ctx context.Context, tx *sql.Tx, c *model.CagnotteContribution) error {
	const q = `INSERT INTO cagnotte_contributions (cagnotte_id, name, email, amount, status, message, anonymous)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		c.CagnotteID, c.Name, c.Email, c.Amount, model.ContributionPending, c.Message, c.Anonymous)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Status = model.ContributionPending
	return nil
}

// CompleteContribution flips a pending contribution to completed. This
// is the hook for the out-of-band payment confirmation; flipping an
// already completed contribution affects no row and returns
// ErrConflict.
func (r *CagnotteRepo) CompleteContribution(ctx context.Context, contributionID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cagnotte_contributions SET status = ? WHERE id = ? AND status = ?`,
		model.ContributionCompleted, contributionID, model.ContributionPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Collected sums the completed contributions of a cagnotte. Pending
// contributions never count toward the displayed total.
func (r *CagnotteRepo) Collected(ctx context.Context, cagnotteID uint64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM cagnotte_contributions WHERE cagnotte_id = ? AND status = ?`,
		cagnotteID, model.ContributionCompleted).Scan(&total)
	return total, err
}

// CollectedTx is Collected inside an existing transaction, used by
// request-payout so the eligibility check sees the same snapshot as
// the status flip.
func (r *CagnotteRepo) CollectedTx(ctx context.Context, tx *sql.Tx, cagnotteID uint64) (int64, error) {
	var total int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM cagnotte_contributions WHERE cagnotte_id = ? AND status = ?`,
		cagnotteID, model.ContributionCompleted).Scan(&total)
	return total, err
}

// ListContributions returns a cagnotte's contributions, newest first.
// The caller decides whether to anonymize names for public display.
func (r *CagnotteRepo) ListContributions(ctx context.Context, cagnotteID uint64) ([]model.CagnotteContribution, error) {
	const q = `SELECT id, cagnotte_id, name, email, amount, status, message, anonymous, created_at
	           FROM cagnotte_contributions WHERE cagnotte_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, cagnotteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contributions := make([]model.CagnotteContribution, 0)
	for rows.Next() {
		var c model.CagnotteContribution
		if err := rows.Scan(&c.ID, &c.CagnotteID, &c.Name, &c.Email, &c.Amount,
			&c.Status, &c.Message, &c.Anonymous, &c.CreatedAt); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// ListByStatus returns cagnottes in a given status, oldest first.
// Admin review queue ordering.
func (r *CagnotteRepo) ListByStatus(ctx context.Context, status string) ([]model.Cagnotte, error) {
	const q = `SELECT id, organizer_id, title, description, goal, min_contribution, status, created_at, updated_at
	           FROM cagnottes WHERE status = ? ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cagnottes := make([]model.Cagnotte, 0)
	for rows.Next() {
		var g model.Cagnotte
		if err := rows.Scan(&g.ID, &g.OrganizerID, &g.Title, &g.Description, &g.Goal,
			&g.MinContribution, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		cagnottes = append(cagnottes, g)
	}
	return cagnottes, rows.Err()
}

// ListByOrganizer returns all cagnottes owned by an organizer, newest
// first.
func (r *CagnotteRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Cagnotte, error) {
	const q = `SELECT id, organizer_id, title, description, goal, min_contribution, status, created_at, updated_at
	           FROM cagnottes WHERE organizer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cagnottes := make([]model.Cagnotte, 0)
	for rows.Next() {
		var g model.Cagnotte
		if err := rows.Scan(&g.ID, &g.OrganizerID, &g.Title, &g.Description, &g.Goal,
			&g.MinContribution, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		cagnottes = append(cagnottes, g)
	}
	return cagnottes, rows.Err()
}
