package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/onecrateapp/onecrate/internal/cache"
	"github.com/onecrateapp/onecrate/internal/gateway"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

// State is the lifecycle position of a checkout attempt.
type State string

const (
	StateValidating     State = "validating"
	StateCreatingOrder  State = "creating_order"
	StateAwaitingResult State = "awaiting_gateway_result"
	StateVerifying      State = "verifying"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
	StateCancelled      State = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Attempt is one checkout run for a session.
type Attempt struct {
	ID        string                `json:"id"`
	SessionID string                `json:"sessionId"`
	State     State                 `json:"state"`
	Request   *subscription.Request `json:"request,omitempty"`
	Handle    gateway.Handle        `json:"handle,omitempty"`
	Failure   *Error                `json:"failure,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

var ErrAttemptNotFound = errors.New("checkout attempt not found")

// AttemptStore persists attempts in the cache provider for the
// configured TTL. An expired attempt reads as not found.
type AttemptStore struct {
	provider cache.Provider
	ttl      time.Duration
}

func NewAttemptStore(provider cache.Provider, ttl time.Duration) *AttemptStore {
	return &AttemptStore{provider: provider, ttl: ttl}
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (*Attempt, error) {
	raw, err := s.provider.Get(ctx, cache.AttemptKey(attemptID))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	var attempt Attempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return nil, fmt.Errorf("failed to decode attempt: %w", err)
	}
	return &attempt, nil
}

func (s *AttemptStore) Put(ctx context.Context, attempt *Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to encode attempt: %w", err)
	}
	if err := s.provider.Set(ctx, cache.AttemptKey(attempt.ID), string(raw), s.ttl); err != nil {
		return fmt.Errorf("failed to store attempt: %w", err)
	}
	return nil
}
