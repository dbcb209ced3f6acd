// Package checkout drives a cart through order creation, the payment
// widget handshake, and verification with the fulfilment backend.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/onecrateapp/onecrate/internal/backendapi"
	"github.com/onecrateapp/onecrate/internal/gateway"
	"github.com/onecrateapp/onecrate/internal/observability"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

// Backend is the slice of the fulfilment API the orchestrator needs.
type Backend interface {
	CreateRecurringOrder(ctx context.Context, token string, req *subscription.Request) (gateway.Handle, error)
	VerifyPayment(ctx context.Context, token string, result gateway.Result, subscriptionName string) error
}

// Orchestrator owns the checkout state machine. One attempt per session
// may be in flight at a time; there are no automatic retries, a failed
// attempt stays failed and the shopper starts a new one.
type Orchestrator struct {
	backend    Backend
	store      *AttemptStore
	storeName  string
	themeColor string
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]string
}

func NewOrchestrator(backend Backend, store *AttemptStore, storeName, themeColor string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend:    backend,
		store:      store,
		storeName:  storeName,
		themeColor: themeColor,
		logger:     logger,
		inflight:   make(map[string]string),
	}
}

// Started is the outcome of a successful Start: the stored attempt plus
// the widget configuration the client should open.
type Started struct {
	Attempt *Attempt                `json:"attempt"`
	Options gateway.CheckoutOptions `json:"options"`
}

// Start validates the request, creates a gateway order through the
// backend, and parks the attempt awaiting the widget's callback.
func (o *Orchestrator) Start(ctx context.Context, sessionID, token string, req *subscription.Request, prefill gateway.Prefill) (*Started, error) {
	if sessionID == "" {
		return nil, newError(KindValidation, "session is required")
	}
	if !o.acquire(ctx, sessionID) {
		return nil, newError(KindConflict, "a checkout is already in progress for this session")
	}

	attempt := &Attempt{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		State:     StateValidating,
		Request:   req,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	o.setInflight(sessionID, attempt.ID)

	logger := o.logger.With("attempt_id", attempt.ID)
	o.countAttempt(ctx, "checkout.started")

	if token == "" {
		return nil, o.failAndRelease(ctx, attempt, newError(KindAuthRequired, "sign in to start a checkout"))
	}
	if req == nil || len(req.Items) == 0 {
		return nil, o.failAndRelease(ctx, attempt, newError(KindValidation, "checkout requires a non-empty order"))
	}

	attempt.State = StateCreatingOrder
	if err := o.persist(ctx, attempt); err != nil {
		o.release(sessionID)
		return nil, err
	}

	handle, err := o.backend.CreateRecurringOrder(ctx, token, req)
	if err != nil {
		logger.Warn("order creation failed", "error", err)
		return nil, o.failAndRelease(ctx, attempt, classifyBackendError(err, KindOrderCreation))
	}

	attempt.Handle = handle
	attempt.State = StateAwaitingResult
	if err := o.persist(ctx, attempt); err != nil {
		o.release(sessionID)
		return nil, err
	}

	logger.Info("checkout awaiting gateway result", "order_id", handle.OrderID)

	return &Started{
		Attempt: attempt,
		Options: gateway.Options(handle, o.storeName, o.themeColor, req.SubscriptionName, prefill),
	}, nil
}

// HandleGatewaySuccess verifies a widget success callback with the
// backend and settles the attempt.
func (o *Orchestrator) HandleGatewaySuccess(ctx context.Context, attemptID, token string, result gateway.Result) (*Attempt, error) {
	attempt, err := o.store.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.State != StateAwaitingResult {
		return nil, newError(KindConflict, "attempt is %s, not awaiting a gateway result", attempt.State)
	}

	if !result.Valid() {
		return o.fail(ctx, attempt, newError(KindPayment, "gateway callback is missing required fields"))
	}
	if result.OrderID != attempt.Handle.OrderID {
		return o.fail(ctx, attempt, newError(KindPayment, "gateway callback does not match this attempt's order"))
	}
	if token == "" {
		return nil, newError(KindAuthRequired, "sign in to confirm the payment")
	}

	attempt.State = StateVerifying
	if err := o.persist(ctx, attempt); err != nil {
		return nil, err
	}

	subscriptionName := ""
	if attempt.Request != nil {
		subscriptionName = attempt.Request.SubscriptionName
	}

	if err := o.backend.VerifyPayment(ctx, token, result, subscriptionName); err != nil {
		o.logger.Warn("payment verification failed", "attempt_id", attempt.ID, "error", err)
		return o.fail(ctx, attempt, &Error{Kind: KindVerification, Message: unconfirmedPaymentMessage})
	}

	attempt.State = StateSucceeded
	attempt.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(ctx, attempt); err != nil {
		return nil, err
	}
	o.release(attempt.SessionID)
	o.countAttempt(ctx, "checkout.succeeded")
	o.logger.Info("checkout succeeded", "attempt_id", attempt.ID)

	return attempt, nil
}

// HandleGatewayFailure settles the attempt after the widget reported a
// payment failure.
func (o *Orchestrator) HandleGatewayFailure(ctx context.Context, attemptID string, failure gateway.Failure) (*Attempt, error) {
	attempt, err := o.store.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.State != StateAwaitingResult {
		return nil, newError(KindConflict, "attempt is %s, not awaiting a gateway result", attempt.State)
	}

	message := failure.Description
	if message == "" {
		message = "payment failed at the gateway"
	}
	return o.fail(ctx, attempt, newError(KindPayment, "%s", message))
}

// Cancel abandons an attempt that is still waiting on the widget.
func (o *Orchestrator) Cancel(ctx context.Context, attemptID string) (*Attempt, error) {
	attempt, err := o.store.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.State != StateAwaitingResult {
		return nil, newError(KindConflict, "attempt is %s and cannot be cancelled", attempt.State)
	}

	attempt.State = StateCancelled
	attempt.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(ctx, attempt); err != nil {
		return nil, err
	}
	o.release(attempt.SessionID)
	o.countAttempt(ctx, "checkout.cancelled")
	o.logger.Info("checkout cancelled", "attempt_id", attempt.ID)

	return attempt, nil
}

// Get returns the current view of an attempt.
func (o *Orchestrator) Get(ctx context.Context, attemptID string) (*Attempt, error) {
	return o.store.Get(ctx, attemptID)
}

func (o *Orchestrator) fail(ctx context.Context, attempt *Attempt, failure *Error) (*Attempt, error) {
	attempt.State = StateFailed
	attempt.Failure = failure
	attempt.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(ctx, attempt); err != nil {
		return nil, err
	}
	o.release(attempt.SessionID)
	o.countAttempt(ctx, "checkout.failed", attribute.String("checkout.failure_kind", string(failure.Kind)))
	return attempt, failure
}

func (o *Orchestrator) failAndRelease(ctx context.Context, attempt *Attempt, failure *Error) error {
	_, err := o.fail(ctx, attempt, failure)
	return err
}

func (o *Orchestrator) persist(ctx context.Context, attempt *Attempt) error {
	attempt.UpdatedAt = time.Now().UTC()
	return o.store.Put(ctx, attempt)
}

// acquire takes the per-session lock. A held lock whose attempt record
// has expired from the store is stale (the shopper abandoned the widget
// and the TTL elapsed before any callback arrived) and is reclaimed.
func (o *Orchestrator) acquire(ctx context.Context, sessionID string) bool {
	o.mu.Lock()
	current, busy := o.inflight[sessionID]
	if !busy {
		o.inflight[sessionID] = ""
		o.mu.Unlock()
		return true
	}
	o.mu.Unlock()

	if current == "" {
		return false
	}
	if _, err := o.store.Get(ctx, current); !errors.Is(err, ErrAttemptNotFound) {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[sessionID] != current {
		return false
	}
	o.inflight[sessionID] = ""
	o.logger.Warn("reclaimed stale checkout lock", "session_id", sessionID, "attempt_id", current)
	return true
}

func (o *Orchestrator) setInflight(sessionID, attemptID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight[sessionID] = attemptID
}

func (o *Orchestrator) release(sessionID string) {
	if sessionID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, sessionID)
}

func (o *Orchestrator) countAttempt(ctx context.Context, name string, attrs ...attribute.Builder) {
	meter := observability.MeterFromContext(ctx)
	meter.Count(name, 1, sentry.WithAttributes(attrs...))
}

func classifyBackendError(err error, fallback Kind) *Error {
	var apiErr *backendapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return newError(KindAuthRequired, "%s", apiErr.Message)
		}
		return newError(fallback, "%s", apiErr.Message)
	}
	return newError(fallback, "%s", err.Error())
}
