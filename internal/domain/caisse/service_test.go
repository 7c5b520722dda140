package caisse

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaisse/pos-api/internal/domain/sale"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type stubSessions struct {
	byID   map[string]*Session
	active *Session
}

func newStubSessions() *stubSessions {
	return &stubSessions{byID: make(map[string]*Session)}
}

func (s *stubSessions) Create(_ context.Context, session *Session) error {
	s.byID[session.ID] = session
	s.active = session
	return nil
}

func (s *stubSessions) GetByID(_ context.Context, id string) (*Session, error) {
	session, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *stubSessions) FindActive(_ context.Context) (*Session, error) {
	if s.active == nil {
		return nil, ErrNoActiveSession
	}
	cp := *s.active
	return &cp, nil
}

func (s *stubSessions) Close(_ context.Context, session *Session) error {
	s.byID[session.ID] = session
	if s.active != nil && s.active.ID == session.ID {
		s.active = nil
	}
	return nil
}

type stubSales struct {
	stats sale.SessionStats
}

func (s *stubSales) Create(_ context.Context, _ *sale.Transaction) (map[string]int, error) {
	return nil, nil
}

func (s *stubSales) SessionStats(_ context.Context, _ string) (*sale.SessionStats, error) {
	cp := s.stats
	return &cp, nil
}

func newTestService(sessions Repository, sales sale.Repository) *Service {
	svc := NewService(sessions, sales)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a session", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		session, err := svc.Open(ctx, "Morning shift", d("100.00"), "register 1")
		require.NoError(t, err)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, "Morning shift", session.Name)
		assert.Equal(t, StatusActive, session.Status)
		assert.True(t, d("100.00").Equal(session.OpeningAmount))
		assert.Nil(t, session.ClosedAt)
	})

	t.Run("trims the name", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		session, err := svc.Open(ctx, "  Evening  ", decimal.Zero, "")
		require.NoError(t, err)
		assert.Equal(t, "Evening", session.Name)
	})

	t.Run("blank name", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		_, err := svc.Open(ctx, "   ", d("100.00"), "")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("negative opening amount", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		_, err := svc.Open(ctx, "Morning shift", d("-1"), "")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("second session while one is active", func(t *testing.T) {
		sessions := newStubSessions()
		svc := newTestService(sessions, &stubSales{})

		first, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		_, err = svc.Open(ctx, "Afternoon shift", d("50.00"), "")
		var activeErr *SessionAlreadyActiveError
		require.ErrorAs(t, err, &activeErr)
		assert.Equal(t, first.ID, activeErr.ActiveID)
	})
}

func TestActive(t *testing.T) {
	ctx := context.Background()
	sessions := newStubSessions()
	svc := newTestService(sessions, &stubSales{})

	_, err := svc.Active(ctx)
	require.ErrorIs(t, err, ErrNoActiveSession)

	opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
	require.NoError(t, err)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, active.ID)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("returns session stats", func(t *testing.T) {
		sessions := newStubSessions()
		sales := &stubSales{stats: sale.SessionStats{
			TransactionsCount: 12,
			TotalRevenue:      d("412.37"),
			CashRevenue:       d("250.00"),
		}}
		svc := newTestService(sessions, sales)

		session, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		stats, err := svc.Statistics(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.TransactionsCount)
		assert.True(t, d("412.37").Equal(stats.TotalRevenue))
		assert.True(t, d("250.00").Equal(stats.CashRevenue))
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		_, err := svc.Statistics(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles a shortage", func(t *testing.T) {
		sessions := newStubSessions()
		sales := &stubSales{stats: sale.SessionStats{
			TransactionsCount: 9,
			TotalRevenue:      d("400.00"),
			CashRevenue:       d("250.00"),
		}}
		svc := newTestService(sessions, sales)

		opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		// Expected 100 + 250 = 350; counting 345 leaves a 5.00 shortage.
		closed, err := svc.Close(ctx, opened.ID, d("345.00"), "drawer recount")
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, closed.Status)
		require.NotNil(t, closed.ExpectedAmount)
		assert.True(t, d("350.00").Equal(*closed.ExpectedAmount), "expected %s", closed.ExpectedAmount)
		require.NotNil(t, closed.Difference)
		assert.True(t, d("-5.00").Equal(*closed.Difference), "difference %s", closed.Difference)
		require.NotNil(t, closed.ClosingAmount)
		assert.True(t, d("345.00").Equal(*closed.ClosingAmount))
		assert.NotNil(t, closed.ClosedAt)
		assert.Equal(t, "drawer recount", closed.Notes)
	})

	t.Run("reconciles an overage", func(t *testing.T) {
		sessions := newStubSessions()
		sales := &stubSales{stats: sale.SessionStats{CashRevenue: d("250.00")}}
		svc := newTestService(sessions, sales)

		opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		closed, err := svc.Close(ctx, opened.ID, d("352.50"), "")
		require.NoError(t, err)
		assert.True(t, d("2.50").Equal(*closed.Difference), "difference %s", closed.Difference)
	})

	t.Run("balanced drawer with no sales", func(t *testing.T) {
		sessions := newStubSessions()
		svc := newTestService(sessions, &stubSales{})

		opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		closed, err := svc.Close(ctx, opened.ID, d("100.00"), "")
		require.NoError(t, err)
		assert.True(t, closed.Difference.IsZero())
	})

	t.Run("negative closing amount", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		_, err := svc.Close(ctx, "any", d("-1"), "")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := newTestService(newStubSessions(), &stubSales{})

		_, err := svc.Close(ctx, "missing", d("100.00"), "")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("closing twice fails", func(t *testing.T) {
		sessions := newStubSessions()
		svc := newTestService(sessions, &stubSales{})

		opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)

		_, err = svc.Close(ctx, opened.ID, d("100.00"), "")
		require.NoError(t, err)

		_, err = svc.Close(ctx, opened.ID, d("100.00"), "")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("a new session can open after close", func(t *testing.T) {
		sessions := newStubSessions()
		svc := newTestService(sessions, &stubSales{})

		opened, err := svc.Open(ctx, "Morning shift", d("100.00"), "")
		require.NoError(t, err)
		_, err = svc.Close(ctx, opened.ID, d("100.00"), "")
		require.NoError(t, err)

		_, err = svc.Open(ctx, "Afternoon shift", d("80.00"), "")
		require.NoError(t, err)
	})
}
