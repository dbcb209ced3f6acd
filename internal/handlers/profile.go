package handlers

import (
	"net/http"

	"github.com/onecrateapp/onecrate/internal/backendapi"
)

// GetProfile proxies the shopper's account record from the backend.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireBearer(w, r)
	if !ok {
		return
	}

	user, err := h.backend.Profile(r.Context(), token)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// UpdateProfile forwards account changes to the backend.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireBearer(w, r)
	if !ok {
		return
	}

	var update backendapi.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.backend.UpdateProfile(r.Context(), token, update)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// ListSubscriptions proxies the shopper's subscriptions.
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireBearer(w, r)
	if !ok {
		return
	}

	subs, err := h.backend.Subscriptions(r.Context(), token)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]any{"subscriptions": subs})
}

// ProfileSummary aggregates subscription history into headline figures.
func (h *Handlers) ProfileSummary(w http.ResponseWriter, r *http.Request) {
	token, ok := h.requireBearer(w, r)
	if !ok {
		return
	}

	subs, err := h.backend.Subscriptions(r.Context(), token)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, backendapi.Summarize(subs))
}

func (h *Handlers) requireBearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := h.bearerToken(r)
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, err.Error())
		return "", false
	}
	if token == "" {
		h.respondError(w, r, http.StatusUnauthorized, "authorization required")
		return "", false
	}
	return token, true
}
