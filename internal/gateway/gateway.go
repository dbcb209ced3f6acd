// Package gateway builds the browser-side payment widget instructions
// and decodes the callbacks the widget posts back.
package gateway

import "fmt"

// Handle identifies a payment order created at the gateway.
type Handle struct {
	OrderID string `json:"orderId"`
	KeyID   string `json:"keyId"`
}

// Prefill carries shopper details into the widget form.
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Theme styles the widget.
type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions is the object handed to the payment widget. Field
// names follow the widget's own contract.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	OrderID     string  `json:"order_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image,omitempty"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// Result is the success callback payload posted by the widget.
type Result struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Failure is the error callback payload posted by the widget.
type Failure struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
}

// Options assembles the widget configuration for a created order.
func Options(handle Handle, storeName, themeColor, subscriptionName string, prefill Prefill) CheckoutOptions {
	return CheckoutOptions{
		Key:         handle.KeyID,
		OrderID:     handle.OrderID,
		Name:        storeName,
		Description: fmt.Sprintf("Payment for %s", subscriptionName),
		Image:       "/logo.svg",
		Prefill:     prefill,
		Theme:       Theme{Color: themeColor},
	}
}

// Valid reports whether a success callback carries every field the
// verification step needs.
func (r Result) Valid() bool {
	return r.PaymentID != "" && r.OrderID != "" && r.Signature != ""
}
