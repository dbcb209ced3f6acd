package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/onecrateapp/onecrate/internal/backendapi"
	"github.com/onecrateapp/onecrate/internal/cache"
	"github.com/onecrateapp/onecrate/internal/gateway"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

type fakeBackend struct {
	createHandle gateway.Handle
	createErr    error
	verifyErr    error

	createCalls int
	verifyCalls int
	gotVerify   gateway.Result
}

func (f *fakeBackend) CreateRecurringOrder(_ context.Context, _ string, _ *subscription.Request) (gateway.Handle, error) {
	f.createCalls++
	if f.createErr != nil {
		return gateway.Handle{}, f.createErr
	}
	return f.createHandle, nil
}

func (f *fakeBackend) VerifyPayment(_ context.Context, _ string, result gateway.Result, _ string) error {
	f.verifyCalls++
	f.gotVerify = result
	return f.verifyErr
}

func testRequest() *subscription.Request {
	return &subscription.Request{
		SubscriptionName: "Monthly Staples",
		Items:            []subscription.Item{{ProductID: 1, Name: "Atta", Quantity: 1, Price: 313, MRP: 340}},
		TotalItems:       1,
		Subtotal:         313,
		PlatformFee:      1,
		TotalMRP:         340,
		TotalSavings:     27,
		GrandTotal:       314,
	}
}

func newTestOrchestrator(t *testing.T, backend Backend) *Orchestrator {
	t.Helper()

	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to create cache provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })

	store := NewAttemptStore(provider, 30*time.Minute)
	return NewOrchestrator(backend, store, "12 Crate Essentials", "#059669", nil)
}

func TestStartHappyPath(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{Name: "Asha"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if started.Attempt.State != StateAwaitingResult {
		t.Fatalf("expected awaiting state, got %s", started.Attempt.State)
	}
	if started.Options.OrderID != "order_1" || started.Options.Key != "rzp_key" {
		t.Fatalf("unexpected options: %+v", started.Options)
	}
	if started.Options.Description != "Payment for Monthly Staples" {
		t.Fatalf("unexpected description: %q", started.Options.Description)
	}

	stored, err := orc.Get(context.Background(), started.Attempt.ID)
	if err != nil {
		t.Fatalf("expected stored attempt, got %v", err)
	}
	if stored.Handle.OrderID != "order_1" {
		t.Fatalf("unexpected stored attempt: %+v", stored)
	}
}

func TestStartWithoutToken(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	orc := newTestOrchestrator(t, backend)

	_, err := orc.Start(context.Background(), "sess-1", "", testRequest(), gateway.Prefill{})

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindAuthRequired {
		t.Fatalf("expected auth_required, got %v", err)
	}
	if backend.createCalls != 0 {
		t.Fatalf("expected no backend call, got %d", backend.createCalls)
	}
}

func TestStartWithEmptyOrder(t *testing.T) {
	t.Parallel()

	orc := newTestOrchestrator(t, &fakeBackend{})

	_, err := orc.Start(context.Background(), "sess-1", "tok", &subscription.Request{SubscriptionName: "x"}, gateway.Prefill{})

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartRejectsConcurrentCheckout(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	if _, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{}); err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}

	_, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})
	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A different session is unaffected.
	if _, err := orc.Start(context.Background(), "sess-2", "tok", testRequest(), gateway.Prefill{}); err != nil {
		t.Fatalf("expected second session to start, got %v", err)
	}
}

func TestStartReclaimsStaleLockAfterAttemptExpiry(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}

	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to create cache provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })

	store := NewAttemptStore(provider, 30*time.Minute)
	orc := NewOrchestrator(backend, store, "12 Crate Essentials", "#059669", nil)

	started, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})
	if err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}

	// The shopper abandons the widget; no callback ever arrives and the
	// attempt record expires out of the store while the session lock is
	// still held.
	if err := provider.Delete(context.Background(), cache.AttemptKey(started.Attempt.ID)); err != nil {
		t.Fatalf("failed to expire attempt: %v", err)
	}

	if _, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{}); err != nil {
		t.Fatalf("expected stale lock to be reclaimed, got %v", err)
	}
	if backend.createCalls != 2 {
		t.Fatalf("expected a second order creation, got %d calls", backend.createCalls)
	}
}

func TestStartMapsBackendAuthError(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createErr: &backendapi.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}}
	orc := newTestOrchestrator(t, backend)

	_, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindAuthRequired {
		t.Fatalf("expected auth_required, got %v", err)
	}
}

func TestStartOrderCreationFailureAllowsNewAttempt(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createErr: &backendapi.APIError{StatusCode: http.StatusBadGateway, Message: "gateway down"}}
	orc := newTestOrchestrator(t, backend)

	_, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})
	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindOrderCreation {
		t.Fatalf("expected order_creation_error, got %v", err)
	}

	// The failed attempt releases the session lock.
	backend.createErr = nil
	backend.createHandle = gateway.Handle{OrderID: "order_2", KeyID: "rzp_key"}
	if _, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{}); err != nil {
		t.Fatalf("expected retry on a new attempt to succeed, got %v", err)
	}
}

func TestHandleGatewaySuccess(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})
	if err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	result := gateway.Result{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}
	attempt, err := orc.HandleGatewaySuccess(context.Background(), started.Attempt.ID, "tok", result)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempt.State != StateSucceeded {
		t.Fatalf("expected succeeded, got %s", attempt.State)
	}
	if backend.gotVerify != result {
		t.Fatalf("expected verify call with %+v, got %+v", result, backend.gotVerify)
	}

	// A new checkout for the session may now begin.
	if _, err := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{}); err != nil {
		t.Fatalf("expected session lock released, got %v", err)
	}
}

func TestHandleGatewaySuccessVerificationFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"},
		verifyErr:    &backendapi.APIError{StatusCode: http.StatusBadRequest, Message: "signature mismatch"},
	}
	orc := newTestOrchestrator(t, backend)

	started, _ := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})

	result := gateway.Result{PaymentID: "pay_1", OrderID: "order_1", Signature: "bad"}
	attempt, err := orc.HandleGatewaySuccess(context.Background(), started.Attempt.ID, "tok", result)

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindVerification {
		t.Fatalf("expected verification_error, got %v", err)
	}
	if attempt.State != StateFailed {
		t.Fatalf("expected failed state, got %s", attempt.State)
	}
	if attempt.Failure == nil || attempt.Failure.Message != unconfirmedPaymentMessage {
		t.Fatalf("expected unconfirmed payment message, got %+v", attempt.Failure)
	}
}

func TestHandleGatewaySuccessOrderMismatch(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, _ := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})

	result := gateway.Result{PaymentID: "pay_1", OrderID: "other_order", Signature: "sig"}
	attempt, err := orc.HandleGatewaySuccess(context.Background(), started.Attempt.ID, "tok", result)

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindPayment {
		t.Fatalf("expected payment_error, got %v", err)
	}
	if attempt.State != StateFailed {
		t.Fatalf("expected failed state, got %s", attempt.State)
	}
	if backend.verifyCalls != 0 {
		t.Fatalf("expected no verify call, got %d", backend.verifyCalls)
	}
}

func TestHandleGatewaySuccessOnSettledAttempt(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, _ := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})
	result := gateway.Result{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}

	if _, err := orc.HandleGatewaySuccess(context.Background(), started.Attempt.ID, "tok", result); err != nil {
		t.Fatalf("expected first callback to succeed, got %v", err)
	}

	_, err := orc.HandleGatewaySuccess(context.Background(), started.Attempt.ID, "tok", result)
	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindConflict {
		t.Fatalf("expected conflict on settled attempt, got %v", err)
	}
	if backend.verifyCalls != 1 {
		t.Fatalf("expected exactly one verify call, got %d", backend.verifyCalls)
	}
}

func TestHandleGatewayFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, _ := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})

	failure := gateway.Failure{Code: "BAD_REQUEST_ERROR", Description: "card declined"}
	attempt, err := orc.HandleGatewayFailure(context.Background(), started.Attempt.ID, failure)

	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindPayment {
		t.Fatalf("expected payment_error, got %v", err)
	}
	if attempt.State != StateFailed || attempt.Failure.Message != "card declined" {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{createHandle: gateway.Handle{OrderID: "order_1", KeyID: "rzp_key"}}
	orc := newTestOrchestrator(t, backend)

	started, _ := orc.Start(context.Background(), "sess-1", "tok", testRequest(), gateway.Prefill{})

	attempt, err := orc.Cancel(context.Background(), started.Attempt.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempt.State != StateCancelled {
		t.Fatalf("expected cancelled, got %s", attempt.State)
	}

	// Cancelling twice is a conflict.
	_, err = orc.Cancel(context.Background(), started.Attempt.ID)
	var checkoutErr *Error
	if !errors.As(err, &checkoutErr) || checkoutErr.Kind != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetUnknownAttempt(t *testing.T) {
	t.Parallel()

	orc := newTestOrchestrator(t, &fakeBackend{})

	_, err := orc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}
