package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/sale"
)

// Settings supplies externally managed configuration the engine needs per
// checkout. TaxRate returns a decimal fraction, e.g. 0.08 for 8%.
type Settings interface {
	TaxRate(ctx context.Context) (decimal.Decimal, error)
}

// CheckoutRequest holds the payment details for finalizing a cart.
type CheckoutRequest struct {
	PaymentMethod   sale.PaymentMethod
	AmountPaid      decimal.Decimal
	CaisseSessionID string
}

// Service finalizes carts into persisted sale transactions.
type Service struct {
	products product.Repository
	sales    sale.Repository
	settings Settings
	watcher  product.StockWatcher
}

// NewService creates a checkout Service. watcher may be nil.
func NewService(
	products product.Repository,
	sales sale.Repository,
	settings Settings,
	watcher product.StockWatcher,
) *Service {
	return &Service{
		products: products,
		sales:    sales,
		settings: settings,
		watcher:  watcher,
	}
}

// Checkout finalizes the cart: it revalidates every line against the live
// catalog, computes totals, validates payment, and persists the sale together
// with the stock decrements in one transaction. On success the cart is cleared;
// on any failure the cart is left unchanged and remains editable.
func (s *Service) Checkout(ctx context.Context, c *Cart, req CheckoutRequest) (*sale.Transaction, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, errors.Errorf("unsupported payment method: %q", req.PaymentMethod)
	}

	// Mandatory revalidation: stock may have changed since the lines were
	// added, so every line is re-checked against a fresh catalog snapshot.
	// All offending lines are reported together.
	lines := c.Lines()
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.Product.ID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	current := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		current[p.ID] = p
	}

	var short []ShortLine
	for _, l := range lines {
		p, ok := current[l.Product.ID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.Product.ID}
		}
		if l.Quantity > p.Stock {
			short = append(short, ShortLine{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: l.Quantity,
			})
		}
	}
	if len(short) > 0 {
		return nil, &InsufficientStockError{Lines: short}
	}

	taxRate, err := s.settings.TaxRate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "tax rate")
	}
	totals, err := c.Totals(taxRate)
	if err != nil {
		return nil, err
	}

	// Cash requires sufficient tender; other methods charge the exact total.
	paid := totals.Total
	change := decimal.Zero
	if req.PaymentMethod == sale.PaymentCash {
		if req.AmountPaid.LessThan(totals.Total) {
			return nil, &InsufficientPaymentError{Total: totals.Total, Paid: req.AmountPaid}
		}
		paid = req.AmountPaid
		change = req.AmountPaid.Sub(totals.Total)
	}

	items := make([]sale.Item, len(lines))
	for i, l := range lines {
		items[i] = sale.Item{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
		}
	}

	promoCode := ""
	if p := c.Promotion(); p != nil {
		promoCode = p.Code
	}

	tx := &sale.Transaction{
		ID:              uuid.New().String(),
		Items:           items,
		PaymentMethod:   req.PaymentMethod,
		CustomerID:      c.CustomerID(),
		PromotionCode:   promoCode,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		Tax:             totals.Tax,
		Total:           totals.Total,
		AmountPaid:      paid,
		ChangeGiven:     change,
		CaisseSessionID: req.CaisseSessionID,
	}

	remaining, err := s.sales.Create(ctx, tx)
	if err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	// Checkout succeeded: reset the cart and notify stock subscribers.
	c.Clear()
	if s.watcher != nil {
		for id, left := range remaining {
			s.watcher.StockChanged(ctx, id, left)
		}
	}

	return tx, nil
}
