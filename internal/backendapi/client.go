// Package backendapi is the HTTP client for the fulfilment backend,
// which owns user accounts, subscriptions, and payment verification.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onecrateapp/onecrate/internal/gateway"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

type createOrderResponse struct {
	RazorpayKeyID string `json:"razorpayKeyId"`
	Order         struct {
		ID string `json:"id"`
	} `json:"order"`
}

// CreateRecurringOrder registers a subscription draft with the backend
// and returns the gateway order handle for the payment widget.
func (c *Client) CreateRecurringOrder(ctx context.Context, token string, req *subscription.Request) (gateway.Handle, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/recurring-order", token, req, &resp); err != nil {
		return gateway.Handle{}, err
	}

	if resp.Order.ID == "" || resp.RazorpayKeyID == "" {
		return gateway.Handle{}, fmt.Errorf("backend returned incomplete order handle")
	}

	return gateway.Handle{OrderID: resp.Order.ID, KeyID: resp.RazorpayKeyID}, nil
}

type verifyRequest struct {
	PaymentID        string `json:"razorpay_payment_id"`
	OrderID          string `json:"razorpay_order_id"`
	Signature        string `json:"razorpay_signature"`
	SubscriptionName string `json:"subscriptionName"`
}

// VerifyPayment asks the backend to verify the gateway signature and
// activate the subscription.
func (c *Client) VerifyPayment(ctx context.Context, token string, result gateway.Result, subscriptionName string) error {
	req := verifyRequest{
		PaymentID:        result.PaymentID,
		OrderID:          result.OrderID,
		Signature:        result.Signature,
		SubscriptionName: subscriptionName,
	}
	return c.do(ctx, http.MethodPost, "/api/recurring-verify", token, req, nil)
}

type subscriptionsResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// Subscriptions lists the shopper's subscriptions.
func (c *Client) Subscriptions(ctx context.Context, token string) ([]Subscription, error) {
	var resp subscriptionsResponse
	if err := c.do(ctx, http.MethodGet, "/subscriptionsget", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subscriptions, nil
}

// Profile fetches the shopper's account details.
func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/user/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes account details and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/user/profile", token, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	}

	c.logger.Debug("backend error response", "status", resp.StatusCode, "message", apiErr.Message)
	return apiErr
}
