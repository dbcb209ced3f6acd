package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onecrateapp/onecrate/internal/pricing"
	"github.com/onecrateapp/onecrate/internal/session"
)

type cartResponse struct {
	Cart       pricing.Snapshot `json:"cart"`
	Suggestion *pricing.TopUp   `json:"suggestion,omitempty"`
	Notice     string           `json:"notice,omitempty"`
}

type addItemRequest struct {
	ProductID int `json:"productId"`
}

// GetCart prices the session's cart.
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	data, _, err := h.sessionManager.EnsureSession(r.Context(), w, r)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	h.respondCart(w, r, data, "")
}

// AddCartItem adds one unit of a product to the cart.
func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		h.respondError(w, r, http.StatusNotFound, "product not found")
		return
	}

	data, sessionID, err := h.sessionManager.EnsureSession(r.Context(), w, r)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	event := data.Cart.Add(product.ID, product.Name)
	if err := h.sessionManager.Persist(r.Context(), sessionID, data); err != nil {
		h.respondFromError(w, r, err)
		return
	}

	h.respondCart(w, r, data, event.Message)
}

// RemoveCartItem removes one unit of a product from the cart.
func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(mux.Vars(r)["productID"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid product ID")
		return
	}

	data, sessionID, err := h.sessionManager.EnsureSession(r.Context(), w, r)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	name := "item"
	if product, ok := h.catalog.Product(productID); ok {
		name = product.Name
	}

	event := data.Cart.Remove(productID, name)
	if err := h.sessionManager.Persist(r.Context(), sessionID, data); err != nil {
		h.respondFromError(w, r, err)
		return
	}

	h.respondCart(w, r, data, event.Message)
}

// ClearCart empties the session's cart.
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	data, sessionID, err := h.sessionManager.EnsureSession(r.Context(), w, r)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	event := data.Cart.Clear()
	if err := h.sessionManager.Persist(r.Context(), sessionID, data); err != nil {
		h.respondFromError(w, r, err)
		return
	}

	h.respondCart(w, r, data, event.Message)
}

func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, data *session.Data, notice string) {
	snap, err := h.pricer.Snapshot(data.Cart, h.catalog)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	resp := cartResponse{Cart: snap, Notice: notice}
	if topUp, ok := h.pricer.SuggestedTopUp(snap.GrandTotal); ok {
		resp.Suggestion = &topUp
	}

	h.respondJSON(w, r, http.StatusOK, resp)
}
