package checkout

import "fmt"

// Kind classifies why a checkout attempt failed.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindAuthRequired  Kind = "auth_required"
	KindOrderCreation Kind = "order_creation_error"
	KindPayment       Kind = "payment_error"
	KindVerification  Kind = "verification_error"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
)

// Error is a checkout failure with a stable classification.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// unconfirmedPaymentMessage is surfaced when the gateway reported a
// successful charge but verification with the backend did not succeed.
// The shopper may have been charged, so the wording must not claim the
// payment failed outright.
const unconfirmedPaymentMessage = "payment may have been captured but is unconfirmed; contact support before retrying"
