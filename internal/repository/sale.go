package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/sale"
)

const (
	createSaleSQL = `INSERT INTO sales (
			id, items, payment_method, customer_id, promotion_code,
			subtotal, discount, tax, total, amount_paid, change_given, caisse_session_id
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))
		RETURNING created_at`

	// The WHERE clause is the authoritative stock check: the update only
	// succeeds when enough stock remains at commit time.
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock`

	sessionStatsSQL = `SELECT
			COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'cash'), 0)
		FROM sales WHERE caisse_session_id = $1`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create persists the sale and decrements stock for every line in a single
// database transaction. When any line no longer has sufficient stock the whole
// transaction is rolled back with a sale.StockConflictError.
func (r *SaleRepository) Create(ctx context.Context, t *sale.Transaction) (map[string]int, error) {
	itemsJSON, err := json.Marshal(t.Items)
	if err != nil {
		return nil, fmt.Errorf("marshaling sale items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	remaining := make(map[string]int, len(t.Items))
	for _, item := range t.Items {
		var left int
		err := tx.QueryRow(ctx, decrementStockSQL, item.ProductID, item.Quantity).Scan(&left)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &sale.StockConflictError{ProductID: item.ProductID, Requested: item.Quantity}
			}
			return nil, fmt.Errorf("decrementing stock for %q: %w", item.ProductID, err)
		}
		remaining[item.ProductID] = left
	}

	err = tx.QueryRow(ctx, createSaleSQL,
		t.ID, itemsJSON, string(t.PaymentMethod), t.CustomerID, t.PromotionCode,
		t.Subtotal, t.Discount, t.Tax, t.Total, t.AmountPaid, t.ChangeGiven, t.CaisseSessionID,
	).Scan(&t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating sale %q: %w", t.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing sale %q: %w", t.ID, err)
	}
	return remaining, nil
}

// SessionStats aggregates the sales recorded against one caisse session.
func (r *SaleRepository) SessionStats(ctx context.Context, sessionID string) (*sale.SessionStats, error) {
	var (
		count int
		total decimal.Decimal
		cash  decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, sessionStatsSQL, sessionID).Scan(&count, &total, &cash)
	if err != nil {
		return nil, fmt.Errorf("aggregating session %q: %w", sessionID, err)
	}
	return &sale.SessionStats{
		TransactionsCount: count,
		TotalRevenue:      total,
		CashRevenue:       cash,
	}, nil
}
