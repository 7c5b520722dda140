package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/cart"
	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/promotion"
	"github.com/opencaisse/pos-api/internal/domain/sale"
)

type saleItemRequest struct {
	ProductID string
	Quantity  int
}

type saleRequest struct {
	Items           []saleItemRequest
	PaymentMethod   string
	AmountPaid      decimal.Decimal
	PromotionCode   string
	CustomerID      string
	CaisseSessionID string
}

func decodeSaleRequest(d *jx.Decoder) (*saleRequest, error) {
	var req saleRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item saleItemRequest
				err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "product_id":
						item.ProductID, err = d.Str()
					case "quantity":
						item.Quantity, err = d.Int()
					default:
						err = d.Skip()
					}
					return err
				})
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "payment_method":
			var err error
			req.PaymentMethod, err = d.Str()
			return err
		case "amount_paid":
			var err error
			req.AmountPaid, err = decDecimal(d)
			return err
		case "promotion_code":
			var err error
			req.PromotionCode, err = d.Str()
			return err
		case "customer_id":
			var err error
			req.CustomerID, err = d.Str()
			return err
		case "caisse_session_id":
			var err error
			req.CaisseSessionID, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// createSale performs a full checkout: it rebuilds the cart from the request
// against a fresh catalog snapshot, applies the optional promotion, and runs
// the checkout engine. The engine's revalidation and the database stock guard
// remain authoritative over the snapshot checks here.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSaleRequest(jx.Decode(r.Body, 4096))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, r, http.StatusBadRequest, cart.ErrEmptyCart.Error())
		return
	}

	ctx := r.Context()

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}
	fetched, err := h.products.GetByIDs(ctx, ids)
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "get products"))
		return
	}
	catalog := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		catalog[p.ID] = p
	}

	c := cart.New()
	for _, item := range req.Items {
		p, ok := catalog[item.ProductID]
		if !ok {
			respondError(w, r, http.StatusUnprocessableEntity, (&cart.ProductNotFoundError{ProductID: item.ProductID}).Error())
			return
		}
		if err := c.AddItem(p, item.Quantity); err != nil {
			h.respondCheckoutError(w, r, err)
			return
		}
	}

	if req.PromotionCode != "" {
		promo, err := h.validator.Validate(ctx, req.PromotionCode)
		if err != nil {
			if errors.Is(err, promotion.ErrInvalidPromotion) {
				respondError(w, r, http.StatusUnprocessableEntity, err.Error())
				return
			}
			respondInternal(w, r, errors.Wrap(err, "validate promotion"))
			return
		}
		c.ApplyPromotion(promo)
	}
	c.SetCustomer(req.CustomerID)

	tx, err := h.checkout.Checkout(ctx, c, cart.CheckoutRequest{
		PaymentMethod:   sale.PaymentMethod(req.PaymentMethod),
		AmountPaid:      req.AmountPaid,
		CaisseSessionID: req.CaisseSessionID,
	})
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	var e jx.Encoder
	encTransaction(&e, tx)
	respondJSON(w, r, http.StatusCreated, &e)
}

// respondCheckoutError maps cart engine errors to HTTP responses. Business
// rule violations are 422, user input problems 400, everything else 500.
func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidQty   *cart.InvalidQuantityError
		notFound     *cart.ProductNotFoundError
		outOfStock   *cart.OutOfStockError
		insufficient *cart.InsufficientStockError
		payment      *cart.InsufficientPaymentError
		conflict     *sale.StockConflictError
	)
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidQty),
		errors.As(err, &notFound),
		errors.As(err, &outOfStock),
		errors.As(err, &insufficient),
		errors.As(err, &payment),
		errors.As(err, &conflict):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func encTransaction(e *jx.Encoder, tx *sale.Transaction) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(tx.ID)
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range tx.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(item.ProductID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("unit_price")
		encMoney(e, item.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("payment_method")
	e.Str(string(tx.PaymentMethod))
	if tx.CustomerID != "" {
		e.FieldStart("customer_id")
		e.Str(tx.CustomerID)
	}
	if tx.PromotionCode != "" {
		e.FieldStart("promotion_code")
		e.Str(tx.PromotionCode)
	}
	e.FieldStart("subtotal")
	encMoney(e, tx.Subtotal)
	e.FieldStart("discount_amount")
	encMoney(e, tx.Discount)
	e.FieldStart("tax_amount")
	encMoney(e, tx.Tax)
	e.FieldStart("total_amount")
	encMoney(e, tx.Total)
	e.FieldStart("amount_paid")
	encMoney(e, tx.AmountPaid)
	e.FieldStart("change_given")
	encMoney(e, tx.ChangeGiven)
	if tx.CaisseSessionID != "" {
		e.FieldStart("caisse_session_id")
		e.Str(tx.CaisseSessionID)
	}
	e.FieldStart("created_at")
	e.Str(tx.CreatedAt.Format(time.RFC3339))
	e.ObjEnd()
}
