package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates the accepted tender types.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}

// Item is one line of a completed sale, priced at the moment of checkout.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Transaction is the immutable record of one completed checkout. Refunds and
// voids are out of scope; a transaction is never mutated after creation.
type Transaction struct {
	ID              string
	Items           []Item
	PaymentMethod   PaymentMethod
	CustomerID      string
	PromotionCode   string
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	ChangeGiven     decimal.Decimal
	CaisseSessionID string
	CreatedAt       time.Time
}

// SessionStats aggregates the sales recorded against one caisse session.
// CashRevenue counts cash-tendered sales only; it is the figure the session
// close reconciles against.
type SessionStats struct {
	TransactionsCount int
	TotalRevenue      decimal.Decimal
	CashRevenue       decimal.Decimal
}

// StockConflictError indicates the authoritative stock check failed while
// committing a sale: another terminal consumed the stock between the client's
// revalidation and the database write.
type StockConflictError struct {
	ProductID string
	Requested int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock changed for product %s: %d units no longer available", e.ProductID, e.Requested)
}

// Repository defines persistence operations for sales.
//
// Create must atomically persist the transaction and decrement stock for every
// line, failing the whole operation when any product no longer has sufficient
// stock. It returns the remaining stock per product on success.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) (remaining map[string]int, err error)
	SessionStats(ctx context.Context, sessionID string) (*SessionStats, error)
}
