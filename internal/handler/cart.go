package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	SKUID    string `json:"skuId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// GetCart returns the session's cart. A visitor without a session or without
// a cart gets the canonical empty cart, never an error.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.formatShop(r)

	key := sessionKey(r)
	if key == "" {
		respondJSON(w, http.StatusOK, newCart(nil, s))
		return
	}

	c, err := h.carts.Current(r.Context(), key)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCart(c, s))
}

// AddCartItem adds a SKU to the session's cart, minting the session and
// creating the cart when this is the visitor's first add.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, "invalid_request", "skuId and a positive quantity are required")
		return
	}

	key := ensureSession(w, r)
	c, err := h.carts.AddItem(r.Context(), key, req.SKUID, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCart(c, h.formatShop(r)))
}

// UpdateCartItem sets the quantity of an existing cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, "invalid_request", "a positive quantity is required")
		return
	}

	key := ensureSession(w, r)
	c, err := h.carts.UpdateQuantity(r.Context(), key, chi.URLParam(r, "skuID"), req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCart(c, h.formatShop(r)))
}

// RemoveCartItem removes a cart line. Removing the last line leaves the
// visitor with the empty cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	key := ensureSession(w, r)
	c, err := h.carts.RemoveItem(r.Context(), key, chi.URLParam(r, "skuID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCart(c, h.formatShop(r)))
}

// ClearCart abandons the session's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	if key == "" {
		respondJSON(w, http.StatusOK, newCart(nil, h.formatShop(r)))
		return
	}

	if err := h.carts.Clear(r.Context(), key); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCart(nil, h.formatShop(r)))
}
