package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencaisse/pos-api/internal/domain/caisse"
)

const (
	createSessionSQL = `INSERT INTO caisse_sessions (id, name, description, opening_amount, status, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getSessionByIDSQL = `SELECT id, name, description, opening_amount, status, opened_at,
			closed_at, closing_amount, expected_amount, difference, notes
		FROM caisse_sessions WHERE id = $1`

	findActiveSessionSQL = `SELECT id, name, description, opening_amount, status, opened_at,
			closed_at, closing_amount, expected_amount, difference, notes
		FROM caisse_sessions WHERE status = 'active'`

	closeSessionSQL = `UPDATE caisse_sessions SET
			status = $2, closed_at = $3, closing_amount = $4,
			expected_amount = $5, difference = $6, notes = $7
		WHERE id = $1 AND status = 'active'`
)

var _ caisse.Repository = (*CaisseRepository)(nil)

// CaisseRepository implements caisse.Repository backed by PostgreSQL. The
// single-active-session invariant is additionally enforced by a partial unique
// index on status = 'active'.
type CaisseRepository struct {
	pool *pgxpool.Pool
}

// NewCaisseRepository returns a CaisseRepository that uses the given pool.
func NewCaisseRepository(pool *pgxpool.Pool) *CaisseRepository {
	return &CaisseRepository{pool: pool}
}

// Create persists a newly opened session.
func (r *CaisseRepository) Create(ctx context.Context, s *caisse.Session) error {
	_, err := r.pool.Exec(ctx, createSessionSQL,
		s.ID, s.Name, s.Description, s.OpeningAmount, string(s.Status), s.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("creating caisse session %q: %w", s.ID, err)
	}
	return nil
}

// GetByID returns a session by its identifier.
func (r *CaisseRepository) GetByID(ctx context.Context, id string) (*caisse.Session, error) {
	rows, err := r.pool.Query(ctx, getSessionByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting caisse session %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caisse.ErrNotFound
		}
		return nil, fmt.Errorf("getting caisse session %q: %w", id, err)
	}
	return &s, nil
}

// FindActive returns the single active session, or caisse.ErrNoActiveSession.
func (r *CaisseRepository) FindActive(ctx context.Context) (*caisse.Session, error) {
	rows, err := r.pool.Query(ctx, findActiveSessionSQL)
	if err != nil {
		return nil, fmt.Errorf("finding active caisse session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSession)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caisse.ErrNoActiveSession
		}
		return nil, fmt.Errorf("finding active caisse session: %w", err)
	}
	return &s, nil
}

// Close persists the closing figures. The status guard makes the close
// idempotent at the storage level: closing an already-closed session updates
// nothing.
func (r *CaisseRepository) Close(ctx context.Context, s *caisse.Session) error {
	tag, err := r.pool.Exec(ctx, closeSessionSQL,
		s.ID, string(s.Status), s.ClosedAt, s.ClosingAmount, s.ExpectedAmount, s.Difference, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("closing caisse session %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return caisse.ErrNotFound
	}
	return nil
}

func scanSession(row pgx.CollectableRow) (caisse.Session, error) {
	var (
		s      caisse.Session
		status string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.OpeningAmount, &status, &s.OpenedAt,
		&s.ClosedAt, &s.ClosingAmount, &s.ExpectedAmount, &s.Difference, &s.Notes,
	)
	s.Status = caisse.Status(status)
	return s, err
}
