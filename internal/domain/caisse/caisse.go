// Package caisse tracks cash-drawer sessions: one shift from opening float to
// reconciled close. Revenue counters are not stored on the session; they are
// aggregated from the sales recorded against it.
package caisse

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("caisse session not found")

// ErrNoActiveSession is returned when no session is currently open.
var ErrNoActiveSession = errors.New("no active caisse session")

// ValidationError indicates user input that violates a session rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SessionAlreadyActiveError indicates an attempt to open a second concurrent
// session while one is still active.
type SessionAlreadyActiveError struct {
	ActiveID string
}

func (e *SessionAlreadyActiveError) Error() string {
	return fmt.Sprintf("caisse session %s is still active", e.ActiveID)
}

// Session is one cash-drawer shift. Once closed it is an immutable historical
// record: ExpectedAmount and Difference are computed exactly once, at close.
type Session struct {
	ID             string
	Name           string
	Description    string
	OpeningAmount  decimal.Decimal
	Status         Status
	OpenedAt       time.Time
	ClosedAt       *time.Time
	ClosingAmount  *decimal.Decimal
	ExpectedAmount *decimal.Decimal
	Difference     *decimal.Decimal
	Notes          string
}

// Repository defines persistence operations for caisse sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	// FindActive returns the single active session, or ErrNoActiveSession.
	FindActive(ctx context.Context) (*Session, error)
	// Close persists the closing figures of an already-computed close.
	Close(ctx context.Context, s *Session) error
}
