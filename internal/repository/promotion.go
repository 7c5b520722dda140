package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/promotion"
)

const (
	findPromotionByCodeSQL = `SELECT id, code, discount_type, value, min_quantity, description, active
		FROM promotions WHERE UPPER(code) = UPPER($1)`

	listActivePromotionsSQL = `SELECT id, code, discount_type, value, min_quantity, description, active
		FROM promotions WHERE active ORDER BY code`

	upsertPromotionSQL = `INSERT INTO promotions (id, code, discount_type, value, min_quantity, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_quantity = EXCLUDED.min_quantity,
			description = EXCLUDED.description,
			active = EXCLUDED.active`
)

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// FindByCode looks up a promotion by its code, case-insensitively.
// Returns promotion.ErrInvalidPromotion when no matching row exists.
func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, findPromotionByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promotion %q: %w", code, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPromotion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promotion.ErrInvalidPromotion
		}
		return nil, fmt.Errorf("finding promotion %q: %w", code, err)
	}
	return &p, nil
}

// ListActive returns every active promotion ordered by code.
func (r *PromotionRepository) ListActive(ctx context.Context) ([]promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, listActivePromotionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	return pgx.CollectRows(rows, scanPromotion)
}

// Upsert inserts or updates a promotion rule by code. Used by the seed and
// ingest tools.
func (r *PromotionRepository) Upsert(ctx context.Context, p *promotion.Promotion) error {
	_, err := r.pool.Exec(ctx, upsertPromotionSQL,
		p.ID, p.Code, string(p.Type), p.Value, p.MinQuantity, p.Description, p.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting promotion %q: %w", p.Code, err)
	}
	return nil
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var (
		p     promotion.Promotion
		typ   string
		value decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Code, &typ, &value, &p.MinQuantity, &p.Description, &p.Active)
	p.Type = promotion.Type(typ)
	p.Value = value
	return p, err
}
