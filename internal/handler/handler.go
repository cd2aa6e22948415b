// Package handler exposes the storefront HTTP API: shop configuration,
// catalog browsing, variant resolution, and the session cart.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/altshop/storefront/internal/commerce"
	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/catalog"
	"github.com/altshop/storefront/internal/domain/shop"
)

var validate = validator.New()

// Handler serves the storefront API, delegating to the catalog repository,
// the shop resolver, and the cart session manager.
type Handler struct {
	catalog catalog.Repository
	shop    *shop.Resolver
	carts   *cart.Manager
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(catalogRepo catalog.Repository, shopResolver *shop.Resolver, carts *cart.Manager) *Handler {
	return &Handler{
		catalog: catalogRepo,
		shop:    shopResolver,
		carts:   carts,
	}
}

// Routes builds the /api router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/shop", h.GetShop)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{slug}", h.GetProduct)
	r.Post("/products/{slug}/resolve", h.ResolveVariant)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Patch("/items/{skuID}", h.UpdateCartItem)
		r.Delete("/items/{skuID}", h.RemoveCartItem)
	})

	return r
}

// errorResponse is the JSON error body for every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Code: code, Message: message})
}

// respondError maps domain and commerce errors onto the HTTP surface:
// validation 400, missing things 404, expired cart 410, upstream timeout 504,
// upstream unreachable 502, everything else 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidQty *cart.InvalidQuantityError
	var qtyErr *catalog.QuantityError

	switch {
	case errors.As(err, &invalidQty):
		respondErrorCode(w, http.StatusBadRequest, "invalid_quantity", invalidQty.Error())
	case errors.As(err, &qtyErr):
		respondErrorCode(w, http.StatusBadRequest, "invalid_quantity", qtyErr.Error())
	case errors.Is(err, cart.ErrNoActiveCart):
		respondErrorCode(w, http.StatusNotFound, "no_active_cart", "no active cart for this session")
	case errors.Is(err, cart.ErrExpired):
		respondErrorCode(w, http.StatusGone, "cart_expired", "your cart has expired, please start a new one")
	case errors.Is(err, catalog.ErrNotFound):
		respondErrorCode(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, shop.ErrNotFound):
		respondErrorCode(w, http.StatusNotFound, "not_found", err.Error())
	case commerce.IsTimeout(err):
		respondErrorCode(w, http.StatusGatewayTimeout, "upstream_timeout", "the store is taking too long to respond")
	case commerce.IsNetwork(err):
		respondErrorCode(w, http.StatusBadGateway, "upstream_unreachable", "the store is temporarily unreachable")
	case commerce.IsValidation(err):
		respondErrorCode(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, shop.ErrNotConfigured):
		zctx.From(r.Context()).Error("Shop not configured", zap.Error(err))
		respondErrorCode(w, http.StatusInternalServerError, "shop_not_configured", "store configuration is unavailable")
	default:
		zctx.From(r.Context()).Error("Unhandled request error", zap.Error(err))
		respondErrorCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// formatShop returns the shop used for price display, or nil when it cannot
// be resolved. Catalog pages still render with raw amounts in that case.
func (h *Handler) formatShop(r *http.Request) *shop.Shop {
	s, err := h.shop.Current(r.Context())
	if err != nil {
		zctx.From(r.Context()).Debug("Shop unavailable for price formatting", zap.Error(err))
		return nil
	}
	return s
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode body")
	}
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(err, "validate body")
	}
	return nil
}
