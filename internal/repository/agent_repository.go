package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samaevent/ticketing-api/internal/model"
)

// ErrAgentNotFound is returned when a referenced agent does not exist.
var ErrAgentNotFound = errors.New("agent not found")

// AgentRepo provides persistence for check-in agents and their event
// allow-lists (agent_events table).
type AgentRepo struct {
	db *sql.DB
}

// NewAgentRepo returns a new AgentRepo bound to the given database.
func NewAgentRepo(db *sql.DB) *AgentRepo { return &AgentRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *AgentRepo) DB() *sql.DB { return r.db }

// Create inserts an agent in active status. The access code hash must
// already be computed; the plain code is returned to the organizer
// once by the handler and never stored.
func (r *AgentRepo) Create(ctx context.Context, a *model.Agent) error {
	const q = `INSERT INTO agents (organizer_id, name, access_code_hash, status, all_events)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		a.OrganizerID, a.Name, a.AccessCodeHash, model.AgentActive, a.AllEvents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Status = model.AgentActive
	return nil
}

// GetByID loads an agent together with its event allow-list.
func (r *AgentRepo) GetByID(ctx context.Context, agentID uint64) (*model.Agent, error) {
	const q = `SELECT id, organizer_id, name, access_code_hash, status, all_events, scan_count, last_active_at, created_at
	           FROM agents WHERE id = ?`
	var a model.Agent
	var lastActive sql.NullTime
	err := r.db.QueryRowContext(ctx, q, agentID).Scan(
		&a.ID, &a.OrganizerID, &a.Name, &a.AccessCodeHash, &a.Status, &a.AllEvents,
		&a.ScanCount, &lastActive, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastActive.Valid {
		ts := lastActive.Time
		a.LastActiveAt = &ts
	}
	if !a.AllEvents {
		ids, err := r.eventIDs(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.EventIDs = ids
	}
	return &a, nil
}

func (r *AgentRepo) eventIDs(ctx context.Context, agentID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM agent_events WHERE agent_id = ? ORDER BY event_id`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByOrganizer returns all agents of an organizer with their
// allow-lists, newest first.
func (r *AgentRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Agent, error) {
	const q = `SELECT id, organizer_id, name, access_code_hash, status, all_events, scan_count, last_active_at, created_at
	           FROM agents WHERE organizer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	agents := make([]model.Agent, 0)
	for rows.Next() {
		var a model.Agent
		var lastActive sql.NullTime
		if err := rows.Scan(&a.ID, &a.OrganizerID, &a.Name, &a.AccessCodeHash, &a.Status,
			&a.AllEvents, &a.ScanCount, &lastActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		if lastActive.Valid {
			ts := lastActive.Time
			a.LastActiveAt = &ts
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].AllEvents {
			continue
		}
		ids, err := r.eventIDs(ctx, agents[i].ID)
		if err != nil {
			return nil, err
		}
		agents[i].EventIDs = ids
	}
	return agents, nil
}

// ReplaceScope replaces the agent's event access in one transaction:
// sets the all_events flag and swaps the agent_events allow-list. The
// handler must have validated that every listed event belongs to the
// agent's organizer before calling.
func (r *AgentRepo) ReplaceScope(ctx context.Context, agentID uint64, allEvents bool, eventIDs []uint64) error {
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
	res, err := tx.ExecContext(ctx,
		`UPDATE agents SET all_events = ? WHERE id = ?`, allEvents, agentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// The flag may already match; confirm the agent exists.
		var id uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM agents WHERE id = ?`, agentID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAgentNotFound
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_events WHERE agent_id = ?`, agentID); err != nil {
		return err
	}
	if !allEvents && len(eventIDs) > 0 {
		query := `INSERT INTO agent_events (agent_id, event_id) VALUES `
		args := make([]interface{}, 0, len(eventIDs)*2)
		for i, id := range eventIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, agentID, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetStatus activates or blocks an agent.
func (r *AgentRepo) SetStatus(ctx context.Context, agentID uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET status = ? WHERE id = ?`, status, agentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// Ping records a heartbeat. Best-effort liveness only.
func (r *AgentRepo) Ping(ctx context.Context, agentID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE agents SET last_active_at = UTC_TIMESTAMP() WHERE id = ?`, agentID)
	return err
}

// IncrementScansTx bumps the agent's scan counter within the caller's
// transaction; called when a check-in toggles on.
func (r *AgentRepo) IncrementScansTx(ctx context.Context, tx *sql.Tx, agentID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE agents SET scan_count = scan_count + 1 WHERE id = ?`, agentID)
	return err
}
