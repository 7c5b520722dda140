// Package cart implements the point-of-sale cart and checkout engine: an
// in-memory cart owned by a single terminal session, decimal-safe total
// computation, optimistic stock checks at add time, and a transactional
// checkout that revalidates stock against the live catalog.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/promotion"
)

// Line is one product+quantity entry in an in-progress sale. The embedded
// product is the catalog snapshot taken when the line was added; its price is
// what the sale will charge.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns unit price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the state of one in-progress sale. A cart is exclusively owned
// by one terminal session; it performs no internal locking.
type Cart struct {
	lines      []Line
	promo      *promotion.Promotion
	customerID string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Lines returns the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	return c.lines
}

// Promotion returns the applied promotion, or nil.
func (c *Cart) Promotion() *promotion.Promotion {
	return c.promo
}

// CustomerID returns the selected customer reference, or "".
func (c *Cart) CustomerID() string {
	return c.customerID
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// AddItem adds qty units of p to the cart, merging into an existing line when
// the product is already present. The stock check is optimistic: it compares
// against the snapshot carried by p, not the live catalog.
func (c *Cart) AddItem(p product.Product, qty int) error {
	if qty <= 0 {
		return &InvalidQuantityError{ProductID: p.ID}
	}

	for i := range c.lines {
		if c.lines[i].Product.ID != p.ID {
			continue
		}
		next := c.lines[i].Quantity + qty
		if next > p.Stock {
			return &InsufficientStockError{Lines: []ShortLine{{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: next,
			}}}
		}
		c.lines[i].Product = p // refresh snapshot
		c.lines[i].Quantity = next
		return nil
	}

	if p.Stock <= 0 {
		return &OutOfStockError{ProductID: p.ID, Name: p.Name}
	}
	if qty > p.Stock {
		return &InsufficientStockError{Lines: []ShortLine{{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}}}
	}

	c.lines = append(c.lines, Line{Product: p, Quantity: qty})
	return nil
}

// SetQuantity sets the quantity of the line for productID. A quantity of zero
// or less removes the line. Setting a quantity on a product not in the cart is
// a no-op.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty <= 0 {
		c.RemoveItem(productID)
		return nil
	}

	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		p := c.lines[i].Product
		if qty > p.Stock {
			return &InsufficientStockError{Lines: []ShortLine{{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: qty,
			}}}
		}
		c.lines[i].Quantity = qty
		return nil
	}
	return nil
}

// RemoveItem deletes the line for productID. Removing a product that is not in
// the cart is a no-op, not an error.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart: all lines, the selected customer, and the applied
// promotion are dropped.
func (c *Cart) Clear() {
	c.lines = nil
	c.promo = nil
	c.customerID = ""
}

// ApplyPromotion sets the single active promotion, or clears it when p is nil.
func (c *Cart) ApplyPromotion(p *promotion.Promotion) {
	c.promo = p
}

// SetCustomer records the optional customer reference for the sale.
func (c *Cart) SetCustomer(id string) {
	c.customerID = id
}

// Totals holds the derived monetary figures of a cart. All figures are rounded
// to 2 decimal places; intermediate arithmetic is exact.
type Totals struct {
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	NetAfterDiscount decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
}

// Totals computes subtotal, discount, net-after-discount, tax, and total for
// the current cart contents. taxRate is a decimal fraction (0.08 for 8%).
func (c *Cart) Totals(taxRate decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for _, l := range c.lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	discount := decimal.Zero
	if c.promo != nil {
		var err error
		discount, err = promotion.Apply(c.promo, subtotal)
		if err != nil {
			return Totals{}, err
		}
	}

	// Round the emitted figures only, then derive the total from the rounded
	// parts so that total == netAfterDiscount + tax holds exactly for callers.
	// The net is floored at zero: a discount can never make a sale negative.
	net := subtotal.Sub(discount)
	if net.IsNegative() {
		net = decimal.Zero
	}
	net = net.Round(2)
	tax := net.Mul(taxRate).Round(2)

	return Totals{
		Subtotal:         subtotal.Round(2),
		Discount:         discount.Round(2),
		NetAfterDiscount: net,
		Tax:              tax,
		Total:            net.Add(tax),
	}, nil
}
