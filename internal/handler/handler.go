// Package handler exposes the REST surface of the POS service. Request and
// response bodies are encoded with go-faster/jx so malformed shapes are
// rejected at the boundary and the domain never sees them.
package handler

import (
	"net/http"

	"github.com/opencaisse/pos-api/internal/domain/auth"
	"github.com/opencaisse/pos-api/internal/domain/caisse"
	"github.com/opencaisse/pos-api/internal/domain/cart"
	"github.com/opencaisse/pos-api/internal/domain/customer"
	"github.com/opencaisse/pos-api/internal/domain/product"
	"github.com/opencaisse/pos-api/internal/domain/promotion"
)

// Handler serves the POS API, delegating business logic to the injected
// domain services and repositories.
type Handler struct {
	products   product.Repository
	promotions promotion.Repository
	validator  promotion.Validator
	customers  customer.Repository
	checkout   *cart.Service
	caisse     *caisse.Service
	settings   cart.Settings
	security   *Security
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	promotions promotion.Repository,
	validator promotion.Validator,
	customers customer.Repository,
	checkout *cart.Service,
	caisseSvc *caisse.Service,
	settings cart.Settings,
	apikeys auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		products:   products,
		promotions: promotions,
		validator:  validator,
		customers:  customers,
		checkout:   checkout,
		caisse:     caisseSvc,
		settings:   settings,
		security:   NewSecurity(apikeys, pepper),
	}
}

// Register attaches all API routes to the mux. Mutating routes require a
// valid API key.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/promotions", h.listPromotions)
	mux.HandleFunc("GET /api/settings/tax-rate", h.getTaxRate)
	mux.HandleFunc("GET /api/customers", h.listCustomers)

	mux.HandleFunc("POST /api/sales", h.security.Require(h.createSale))
	mux.HandleFunc("POST /api/caisse/sessions", h.security.Require(h.openSession))
	mux.HandleFunc("GET /api/caisse/sessions/active", h.activeSession)
	mux.HandleFunc("PUT /api/caisse/sessions/{id}/close", h.security.Require(h.closeSession))
	mux.HandleFunc("GET /api/caisse/sessions/{id}/statistics", h.sessionStatistics)
}
