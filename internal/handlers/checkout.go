package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/onecrateapp/onecrate/internal/auth"
	"github.com/onecrateapp/onecrate/internal/cart"
	"github.com/onecrateapp/onecrate/internal/checkout"
	"github.com/onecrateapp/onecrate/internal/gateway"
	"github.com/onecrateapp/onecrate/internal/session"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

type startCheckoutRequest struct {
	SubscriptionName string `json:"subscriptionName"`
	KitID            int    `json:"kitId,omitempty"`
}

// StartCheckout builds a subscription request from the session cart or
// a prebuilt kit and opens a checkout attempt.
func (h *Handlers) StartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req startCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.bearerToken(r)
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	data, sessionID, err := h.sessionManager.EnsureSession(ctx, w, r)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	subReq, err := h.buildSubscriptionRequest(req, data)
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	started, err := h.orchestrator.Start(ctx, sessionID, token, subReq, h.prefillFor(ctx, token))
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, started)
}

// GatewayResult settles an attempt after the payment widget reports
// success, then empties the session cart.
func (h *Handlers) GatewayResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := mux.Vars(r)["attemptID"]

	var result gateway.Result
	if err := decodeJSON(r, &result); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.bearerToken(r)
	if err != nil {
		h.respondError(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	attempt, err := h.orchestrator.HandleGatewaySuccess(ctx, attemptID, token, result)
	if err != nil {
		h.respondCheckoutOutcome(w, r, attempt, err)
		return
	}

	h.clearSessionCart(ctx, attempt.SessionID)
	h.respondJSON(w, r, http.StatusOK, attempt)
}

// GatewayFailure settles an attempt after the widget reports a failed
// payment.
func (h *Handlers) GatewayFailure(w http.ResponseWriter, r *http.Request) {
	attemptID := mux.Vars(r)["attemptID"]

	var failure gateway.Failure
	if err := decodeJSON(r, &failure); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	attempt, err := h.orchestrator.HandleGatewayFailure(r.Context(), attemptID, failure)
	h.respondCheckoutOutcome(w, r, attempt, err)
}

// CancelCheckout abandons an attempt the shopper dismissed.
func (h *Handlers) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.orchestrator.Cancel(r.Context(), mux.Vars(r)["attemptID"])
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, attempt)
}

// GetCheckout reports the current state of an attempt.
func (h *Handlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.orchestrator.Get(r.Context(), mux.Vars(r)["attemptID"])
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, attempt)
}

func (h *Handlers) buildSubscriptionRequest(req startCheckoutRequest, data *session.Data) (*subscription.Request, error) {
	if req.KitID > 0 {
		kit, ok := h.catalog.Kit(req.KitID)
		if !ok {
			return nil, &checkout.Error{Kind: checkout.KindNotFound, Message: "kit not found"}
		}
		return h.builder.BuildFromKit(req.SubscriptionName, kit, h.catalog, h.config.PlatformFee)
	}
	subReq, err := h.builder.BuildFromCart(req.SubscriptionName, data.Cart, h.catalog)
	if err != nil {
		return nil, &checkout.Error{Kind: checkout.KindValidation, Message: err.Error()}
	}
	return subReq, nil
}

// respondCheckoutOutcome renders settled-but-failed attempts with their
// failure detail instead of a bare error body.
func (h *Handlers) respondCheckoutOutcome(w http.ResponseWriter, r *http.Request, attempt *checkout.Attempt, err error) {
	var checkoutErr *checkout.Error
	if errors.As(err, &checkoutErr) && attempt != nil {
		h.respondJSON(w, r, statusForKind(checkoutErr.Kind), attempt)
		return
	}
	if err != nil {
		h.respondFromError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, attempt)
}

func (h *Handlers) bearerToken(r *http.Request) (string, error) {
	token, err := auth.FromRequest(r)
	if errors.Is(err, auth.ErrNoToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := auth.CheckExpiry(token, time.Now()); err != nil {
		return "", err
	}
	return token, nil
}

func (h *Handlers) prefillFor(ctx context.Context, token string) gateway.Prefill {
	if token == "" {
		return gateway.Prefill{}
	}

	user, err := h.backend.Profile(ctx, token)
	if err != nil {
		h.loggerFromContext(ctx).Debug("profile prefill unavailable", "error", err)
		return gateway.Prefill{}
	}
	return gateway.Prefill{Name: user.FullName, Email: user.Email, Contact: user.Phone}
}

func (h *Handlers) clearSessionCart(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := h.sessionManager.Persist(ctx, sessionID, &session.Data{Cart: cart.New()}); err != nil {
		h.loggerFromContext(ctx).Warn("failed to clear cart after checkout", "error", err)
	}
}
