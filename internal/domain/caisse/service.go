package caisse

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/sale"
)

// Service manages the caisse session lifecycle and close-time reconciliation.
type Service struct {
	sessions Repository
	sales    sale.Repository
	now      func() time.Time
}

// NewService creates a caisse Service.
func NewService(sessions Repository, sales sale.Repository) *Service {
	return &Service{
		sessions: sessions,
		sales:    sales,
		now:      time.Now,
	}
}

// Open starts a new session with the given opening float. It fails with
// ValidationError on a blank name or negative amount, and with
// SessionAlreadyActiveError when a session is still open.
func (s *Service) Open(ctx context.Context, name string, openingAmount decimal.Decimal, description string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Reason: "session name is required"}
	}
	if openingAmount.IsNegative() {
		return nil, &ValidationError{Reason: "opening amount must not be negative"}
	}

	active, err := s.sessions.FindActive(ctx)
	switch {
	case err == nil:
		return nil, &SessionAlreadyActiveError{ActiveID: active.ID}
	case errors.Is(err, ErrNoActiveSession):
		// proceed
	default:
		return nil, errors.Wrap(err, "find active session")
	}

	session := &Session{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(name),
		Description:   description,
		OpeningAmount: openingAmount,
		Status:        StatusActive,
		OpenedAt:      s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return session, nil
}

// Active returns the currently open session, or ErrNoActiveSession.
func (s *Service) Active(ctx context.Context) (*Session, error) {
	return s.sessions.FindActive(ctx)
}

// Statistics aggregates the sales recorded against the session.
func (s *Service) Statistics(ctx context.Context, sessionID string) (*sale.SessionStats, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	stats, err := s.sales.SessionStats(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "session stats")
	}
	return stats, nil
}

// Close reconciles and permanently closes the session. The expected amount is
// the opening float plus cash revenue recorded during the session; the
// difference is the counted cash minus the expected amount (positive = overage,
// negative = shortage). A closed session can never reopen.
func (s *Service) Close(ctx context.Context, sessionID string, closingAmount decimal.Decimal, notes string) (*Session, error) {
	if closingAmount.IsNegative() {
		return nil, &ValidationError{Reason: "closing amount must not be negative"}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusClosed {
		return nil, &ValidationError{Reason: "session is already closed"}
	}

	stats, err := s.sales.SessionStats(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "session stats")
	}

	expected := session.OpeningAmount.Add(stats.CashRevenue).Round(2)
	difference := closingAmount.Sub(expected).Round(2)
	closedAt := s.now()

	session.Status = StatusClosed
	session.ClosedAt = &closedAt
	session.ClosingAmount = &closingAmount
	session.ExpectedAmount = &expected
	session.Difference = &difference
	session.Notes = notes

	if err := s.sessions.Close(ctx, session); err != nil {
		return nil, errors.Wrap(err, "close session")
	}
	return session, nil
}
