package promotion

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported promotion discount strategies.
type Type string

const (
	// TypePercentage applies a percentage-based discount to the pre-tax subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
)

// ErrInvalidPromotion is returned when a promotion code is not found or inactive.
var ErrInvalidPromotion = errors.New("invalid promotion code")

// Promotion defines a single discount rule. At most one promotion applies to a
// cart at a time.
//
// MinQuantity is carried for display and ingest compatibility but is not
// enforced by Apply. The legacy behaviour treats every active promotion as
// applicable regardless of cart size.
type Promotion struct {
	ID          string
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinQuantity int
	Description string
	Active      bool
}

// Repository provides lookup of promotion rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	ListActive(ctx context.Context) ([]Promotion, error)
}
