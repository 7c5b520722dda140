package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/opencaisse/pos-api/internal/domain/product"
)

// listProducts returns the full catalog with current stock snapshots.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "list products"))
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range products {
		encProduct(&e, products[i])
	}
	e.ArrEnd()
	respondJSON(w, r, http.StatusOK, &e)
}

// getProduct returns a single product by ID.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "get product"))
		return
	}

	var e jx.Encoder
	encProduct(&e, *p)
	respondJSON(w, r, http.StatusOK, &e)
}

// getTaxRate returns the configured tax rate as a decimal fraction.
func (h *Handler) getTaxRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.settings.TaxRate(r.Context())
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "tax rate"))
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("tax_rate")
	e.Raw([]byte(rate.String()))
	e.ObjEnd()
	respondJSON(w, r, http.StatusOK, &e)
}

func encProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("sku")
	e.Str(p.SKU)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	encMoney(e, p.Price)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("current_stock")
	e.Int(p.Stock)
	e.ObjEnd()
}
