package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when checkout is attempted with no lines.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// InvalidQuantityError indicates a non-positive requested quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a cart line references a product that no
// longer exists in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// OutOfStockError indicates an attempt to add a product with no stock left.
type OutOfStockError struct {
	ProductID string
	Name      string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock", e.Name)
}

// ShortLine describes one cart line whose requested quantity exceeds the
// available stock.
type ShortLine struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (l ShortLine) String() string {
	return fmt.Sprintf("only %d units of %s available, %d requested", l.Available, l.Name, l.Requested)
}

// InsufficientStockError reports every line that exceeds available stock. It
// is returned both from optimistic add-time checks (single line) and from the
// checkout revalidation (possibly several lines).
type InsufficientStockError struct {
	Lines []ShortLine
}

func (e *InsufficientStockError) Error() string {
	msgs := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		msgs[i] = l.String()
	}
	return strings.Join(msgs, "; ")
}

// InsufficientPaymentError indicates cash tendered below the amount due.
type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: %s tendered, %s due", e.Paid.StringFixed(2), e.Total.StringFixed(2))
}
