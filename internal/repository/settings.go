package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	getTaxRateSQL = `SELECT tax_rate FROM settings WHERE id = 1`

	upsertTaxRateSQL = `INSERT INTO settings (id, tax_rate) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET tax_rate = EXCLUDED.tax_rate`
)

// SettingsRepository reads externally managed POS settings from PostgreSQL.
// It satisfies the cart.Settings interface.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// ErrTaxRateNotConfigured is returned when the settings row is absent. An
// unprovisioned database must not let sales through untaxed.
var ErrTaxRateNotConfigured = errors.New("tax rate is not configured")

// TaxRate returns the configured tax rate as a decimal fraction (0.08 = 8%).
func (r *SettingsRepository) TaxRate(ctx context.Context) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, getTaxRateSQL).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrTaxRateNotConfigured
		}
		return decimal.Zero, fmt.Errorf("getting tax rate: %w", err)
	}
	return rate, nil
}

// SetTaxRate stores the tax rate. Used by the seed tool.
func (r *SettingsRepository) SetTaxRate(ctx context.Context, rate decimal.Decimal) error {
	if _, err := r.pool.Exec(ctx, upsertTaxRateSQL, rate); err != nil {
		return fmt.Errorf("setting tax rate: %w", err)
	}
	return nil
}
