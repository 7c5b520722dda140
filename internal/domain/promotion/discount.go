package promotion

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount amount for the given rule against a pre-tax
// subtotal. The result is never negative and never exceeds the subtotal.
// Rounding to 2 decimal places happens only on the returned amount.
func Apply(rule *Promotion, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal

	switch rule.Type {
	case TypePercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case TypeFixed:
		// A flat discount larger than the subtotal is capped; the net-of-discount
		// subtotal must not go negative before tax is applied.
		amount = decimal.Min(rule.Value, subtotal)
	default:
		return decimal.Zero, errors.Errorf("unsupported promotion type: %q", rule.Type)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2), nil
}
