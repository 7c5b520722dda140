package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/promotion"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testProduct(id, name, price string, stock int) product.Product {
	return product.Product{
		ID:    id,
		SKU:   "SKU-" + id,
		Name:  name,
		Price: d(price),
		Stock: stock,
	}
}

func TestAddItem(t *testing.T) {
	p := testProduct("p1", "Espresso", "2.50", 10)

	t.Run("new line", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 1))
		require.Len(t, c.Lines(), 1)
		assert.Equal(t, 1, c.Lines()[0].Quantity)
	})

	t.Run("merges into existing line", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 2))
		require.NoError(t, c.AddItem(p, 3))
		require.Len(t, c.Lines(), 1)
		assert.Equal(t, 5, c.Lines()[0].Quantity)
	})

	t.Run("exactly available stock succeeds", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 10))
	})

	t.Run("one over available stock fails", func(t *testing.T) {
		c := New()
		err := c.AddItem(p, 11)
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Lines, 1)
		assert.Equal(t, 10, stockErr.Lines[0].Available)
		assert.Equal(t, 11, stockErr.Lines[0].Requested)
	})

	t.Run("merge exceeding stock fails and keeps old quantity", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 8))
		err := c.AddItem(p, 3)
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 8, c.Lines()[0].Quantity)
	})

	t.Run("out of stock product", func(t *testing.T) {
		c := New()
		gone := testProduct("p2", "Croissant", "1.80", 0)
		err := c.AddItem(gone, 1)
		var oosErr *OutOfStockError
		require.ErrorAs(t, err, &oosErr)
		assert.Equal(t, "p2", oosErr.ProductID)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		c := New()
		err := c.AddItem(p, 0)
		var qtyErr *InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
	})
}

func TestSetQuantity(t *testing.T) {
	p := testProduct("p1", "Espresso", "2.50", 10)

	t.Run("updates quantity", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 2))
		require.NoError(t, c.SetQuantity("p1", 7))
		assert.Equal(t, 7, c.Lines()[0].Quantity)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 2))
		require.NoError(t, c.SetQuantity("p1", 0))
		assert.True(t, c.IsEmpty())
	})

	t.Run("over stock fails", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(p, 2))
		err := c.SetQuantity("p1", 11)
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 2, c.Lines()[0].Quantity)
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		c := New()
		require.NoError(t, c.SetQuantity("missing", 3))
		assert.True(t, c.IsEmpty())
	})
}

func TestRemoveItem(t *testing.T) {
	p1 := testProduct("p1", "Espresso", "2.50", 10)
	p2 := testProduct("p2", "Croissant", "1.80", 10)

	c := New()
	require.NoError(t, c.AddItem(p1, 1))
	require.NoError(t, c.AddItem(p2, 2))

	c.RemoveItem("p1")
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "p2", c.Lines()[0].Product.ID)

	// Removing an absent product changes nothing.
	before, err := c.Totals(d("0.08"))
	require.NoError(t, err)
	c.RemoveItem("p1")
	after, err := c.Totals(d("0.08"))
	require.NoError(t, err)
	assert.True(t, before.Total.Equal(after.Total))
	assert.Len(t, c.Lines(), 1)
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(testProduct("p1", "Espresso", "2.50", 10), 1))
	c.ApplyPromotion(&promotion.Promotion{Code: "X", Type: promotion.TypePercentage, Value: d("10")})
	c.SetCustomer("c1")

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Promotion())
	assert.Empty(t, c.CustomerID())
}

func TestTotals(t *testing.T) {
	taxRate := d("0.08")

	t.Run("no promotion", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(testProduct("p1", "Widget", "10.00", 100), 3))

		totals, err := c.Totals(taxRate)
		require.NoError(t, err)
		assert.True(t, d("30.00").Equal(totals.Subtotal), "subtotal %s", totals.Subtotal)
		assert.True(t, totals.Discount.IsZero())
		assert.True(t, d("2.40").Equal(totals.Tax), "tax %s", totals.Tax)
		assert.True(t, d("32.40").Equal(totals.Total), "total %s", totals.Total)
	})

	t.Run("percentage promotion", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(testProduct("p1", "Widget", "10.00", 100), 3))
		c.ApplyPromotion(&promotion.Promotion{Code: "PCT20", Type: promotion.TypePercentage, Value: d("20")})

		totals, err := c.Totals(taxRate)
		require.NoError(t, err)
		assert.True(t, d("6.00").Equal(totals.Discount), "discount %s", totals.Discount)
		assert.True(t, d("24.00").Equal(totals.NetAfterDiscount), "net %s", totals.NetAfterDiscount)
		assert.True(t, d("1.92").Equal(totals.Tax), "tax %s", totals.Tax)
		assert.True(t, d("25.92").Equal(totals.Total), "total %s", totals.Total)
	})

	t.Run("fixed promotion larger than subtotal is clamped", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(testProduct("p1", "Widget", "10.00", 100), 1))
		c.ApplyPromotion(&promotion.Promotion{Code: "BIG", Type: promotion.TypeFixed, Value: d("50")})

		totals, err := c.Totals(taxRate)
		require.NoError(t, err)
		assert.True(t, totals.NetAfterDiscount.IsZero(), "net %s", totals.NetAfterDiscount)
		assert.True(t, totals.Total.IsZero(), "total %s", totals.Total)
	})

	t.Run("percentage over 100 floors the net at zero", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(testProduct("p1", "Widget", "10.00", 100), 3))
		c.ApplyPromotion(&promotion.Promotion{Code: "PCT150", Type: promotion.TypePercentage, Value: d("150")})

		totals, err := c.Totals(taxRate)
		require.NoError(t, err)
		assert.True(t, d("45.00").Equal(totals.Discount), "discount %s", totals.Discount)
		assert.True(t, totals.NetAfterDiscount.IsZero(), "net %s", totals.NetAfterDiscount)
		assert.True(t, totals.Tax.IsZero(), "tax %s", totals.Tax)
		assert.True(t, totals.Total.IsZero(), "total %s", totals.Total)
	})

	t.Run("identities hold", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(testProduct("p1", "A", "3.33", 100), 7))
		require.NoError(t, c.AddItem(testProduct("p2", "B", "0.99", 100), 13))
		c.ApplyPromotion(&promotion.Promotion{Code: "PCT7", Type: promotion.TypePercentage, Value: d("7")})

		totals, err := c.Totals(d("0.0825"))
		require.NoError(t, err)
		assert.True(t, totals.NetAfterDiscount.Equal(totals.Subtotal.Sub(totals.Discount)))
		assert.True(t, totals.Total.Equal(totals.NetAfterDiscount.Add(totals.Tax)))
	})

	t.Run("subtotal is exact across add and remove cycles", func(t *testing.T) {
		c := New()
		a := testProduct("p1", "A", "0.10", 1000)
		b := testProduct("p2", "B", "0.20", 1000)
		for range 100 {
			require.NoError(t, c.AddItem(a, 1))
			require.NoError(t, c.AddItem(b, 1))
		}
		c.RemoveItem("p2")

		totals, err := c.Totals(decimal.Zero)
		require.NoError(t, err)
		assert.True(t, d("10.00").Equal(totals.Subtotal), "subtotal %s", totals.Subtotal)
	})
}
