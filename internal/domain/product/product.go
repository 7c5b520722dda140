package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a snapshot of one catalog item, including the stock level as of
// the last read. Stock is advisory on the client side; the repository performs
// the authoritative check when a sale is committed.
type Product struct {
	ID       string
	SKU      string
	Name     string
	Price    decimal.Decimal
	Category string
	Stock    int
}

// Repository defines read and stock operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// StockWatcher receives a notification after a committed sale changes a
// product's stock level. Implementations must not block; the checkout path
// calls them synchronously after the transaction succeeds.
type StockWatcher interface {
	StockChanged(ctx context.Context, productID string, remaining int)
}

// WatcherFunc adapts a function to the StockWatcher interface.
type WatcherFunc func(ctx context.Context, productID string, remaining int)

// StockChanged calls f.
func (f WatcherFunc) StockChanged(ctx context.Context, productID string, remaining int) {
	f(ctx, productID, remaining)
}
