// Package auth extracts and inspects shopper bearer tokens. Tokens are
// issued and verified by the fulfilment backend; this service only
// checks that a token is present and not visibly expired before
// forwarding it.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = fmt.Errorf("no bearer token")

// FromRequest extracts the bearer token from the Authorization header.
func FromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("malformed authorization header")
	}

	return strings.TrimSpace(token), nil
}

// CheckExpiry decodes the token without verifying its signature and
// rejects it when the exp claim has passed. Signature verification is
// the backend's job; this avoids forwarding requests that are certain
// to fail.
func CheckExpiry(token string, now time.Time) error {
	parser := jwt.NewParser()

	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("failed to read token expiry: %w", err)
	}
	if expiry == nil {
		return nil
	}
	if now.After(expiry.Time) {
		return fmt.Errorf("token expired at %s", expiry.Time.Format(time.RFC3339))
	}

	return nil
}
