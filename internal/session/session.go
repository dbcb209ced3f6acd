// Package session provides cookie-backed storage for shopper state.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/onecrateapp/onecrate/internal/cart"
)

const (
	cookieName = "onecrate_session"
	ttl        = 7 * 24 * time.Hour
)

// Data represents the data stored in a session
type Data struct {
	Cart      cart.Ledger `json:"cart"`
	CreatedAt int64       `json:"created_at"`
}

// Manager handles session creation, validation, and storage
type Manager struct {
	store  Store
	secure bool
}

// Store defines the interface for session storage
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// NewManager creates a new session manager
func NewManager(store Store, secure bool) *Manager {
	return &Manager{
		store:  store,
		secure: secure,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// CreateSession creates a new session and sets the cookie
func (m *Manager) CreateSession(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}
	if data == nil {
		return "", fmt.Errorf("session data is required")
	}

	sessionID := generateSessionID()

	sessionData := cloneData(data)
	sessionData.CreatedAt = time.Now().Unix()
	m.store.Set(ctx, sessionID, sessionData, ttl)

	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)

	return sessionID, nil
}

// GetSession retrieves the session data from the request
func (m *Manager) GetSession(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, fmt.Errorf("no session cookie found: %w", err)
	}

	if ctx == nil {
		ctx = r.Context()
	}

	data, ok := m.store.Get(ctx, cookie.Value)
	if !ok {
		return nil, fmt.Errorf("session not found or expired")
	}

	// Check if session is expired
	if time.Now().Unix()-data.CreatedAt > int64(ttl.Seconds()) {
		m.store.Delete(ctx, cookie.Value)
		return nil, fmt.Errorf("session expired")
	}

	return data, nil
}

// EnsureSession returns the current session and its ID, creating a
// fresh one with an empty cart when the request carries no usable
// session.
func (m *Manager) EnsureSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Data, string, error) {
	if ctx == nil {
		ctx = r.Context()
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		if data, getErr := m.GetSession(ctx, r); getErr == nil {
			if data.Cart == nil {
				data.Cart = cart.New()
			}
			return data, cookie.Value, nil
		}
	}

	data := &Data{Cart: cart.New()}
	sessionID, err := m.CreateSession(ctx, w, data)
	if err != nil {
		return nil, "", err
	}
	return data, sessionID, nil
}

// Persist writes session data back under an existing session ID.
func (m *Manager) Persist(ctx context.Context, sessionID string, data *Data) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if data == nil {
		return fmt.Errorf("session data is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sessionData := cloneData(data)
	sessionData.CreatedAt = time.Now().Unix()
	m.store.Set(ctx, sessionID, sessionData, ttl)
	return nil
}

// DestroySession removes the session and clears the cookie
func (m *Manager) DestroySession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if ctx == nil {
		ctx = r.Context()
	}
	if err == nil {
		m.store.Delete(ctx, cookie.Value)
	}

	// Clear the cookie
	clearCookie := &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, clearCookie)

	return nil
}

// UpdateSession updates the existing session data without changing the session ID
// The session ID is obtained from the request cookie
func (m *Manager) UpdateSession(ctx context.Context, r *http.Request, data *Data) error {
	if data == nil {
		return fmt.Errorf("session data is required")
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return fmt.Errorf("no session cookie found: %w", err)
	}

	if ctx == nil {
		ctx = r.Context()
	}

	// Update the timestamp
	sessionData := cloneData(data)
	sessionData.CreatedAt = time.Now().Unix()

	// Update in store using the existing session ID
	m.store.Set(ctx, cookie.Value, sessionData, ttl)

	return nil
}

// generateSessionID generates a session ID.
func generateSessionID() string {
	return uuid.NewString()
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	if data.Cart != nil {
		cloned.Cart = data.Cart.Clone()
	}
	return &cloned
}
