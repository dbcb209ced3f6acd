package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/onecrateapp/onecrate/internal/backendapi"
	"github.com/onecrateapp/onecrate/internal/checkout"
)

func (h *Handlers) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"message": message})
}

// respondFromError maps domain errors onto HTTP statuses.
func (h *Handlers) respondFromError(w http.ResponseWriter, r *http.Request, err error) {
	var checkoutErr *checkout.Error
	if errors.As(err, &checkoutErr) {
		h.respondJSON(w, r, statusForKind(checkoutErr.Kind), checkoutErr)
		return
	}

	if errors.Is(err, checkout.ErrAttemptNotFound) {
		h.respondError(w, r, http.StatusNotFound, "checkout attempt not found")
		return
	}

	var apiErr *backendapi.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		h.respondError(w, r, status, apiErr.Message)
		return
	}

	h.loggerFromContext(r.Context()).Error("request failed", "error", err)
	h.respondError(w, r, http.StatusInternalServerError, "internal error")
}

func statusForKind(kind checkout.Kind) int {
	switch kind {
	case checkout.KindValidation:
		return http.StatusBadRequest
	case checkout.KindAuthRequired:
		return http.StatusUnauthorized
	case checkout.KindConflict:
		return http.StatusConflict
	case checkout.KindNotFound:
		return http.StatusNotFound
	case checkout.KindPayment, checkout.KindOrderCreation, checkout.KindVerification:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
