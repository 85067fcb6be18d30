package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"eventpass/utils"

	"github.com/google/uuid"
)

type ClientConfig struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	KeyID     string `json:"keyId" mapstructure:"key_id"`
	KeySecret string `json:"keySecret" mapstructure:"key_secret"`
	Timeout   time.Duration
}

// Client talks to the hosted-checkout payment gateway over HTTP.
// Requests carry an HMAC of the body so the gateway can authenticate
// the caller; calls run behind a circuit breaker since this is the one
// network-bound hop in the purchase path.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string

	breaker *utils.CircuitBreaker
	hc      *http.Client
}

func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		breaker:   utils.NewCircuitBreaker("payment-gateway"),
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// KeyID returns the public key id for the hosted checkout widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates a payment intent for the given amount. The
// idempotency key travels as a header, so re-sending after a timeout
// returns the original order instead of minting a duplicate.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	body, err := json.Marshal(map[string]any{
		"request_id": uuid.NewString(),
		"amount":     req.AmountMinorUnits,
		"currency":   req.Currency,
		"receipt":    req.Receipt,
		"notes":      req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal order: %w", err)
	}

	var order *Order
	err = c.breaker.Do(func() error {
		var reqErr error
		order, reqErr = c.postOrder(ctx, body, req.IdempotencyKey)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (c *Client) postOrder(ctx context.Context, body []byte, idempotencyKey string) (*Order, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: base url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s%s", base.String(), "/v1/orders"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idempotencyKey)
	req.Header.Set("X-Signature", Hmac256(body, []byte(c.keySecret)))
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway: create order status %d", resp.StatusCode)
	}

	var reply struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("gateway: json.Decode: %w", err)
	}
	if reply.ID == "" {
		return nil, fmt.Errorf("gateway: create order returned no id")
	}

	return &Order{
		ID:       reply.ID,
		Amount:   reply.Amount,
		Currency: reply.Currency,
		Receipt:  reply.Receipt,
		Status:   reply.Status,
	}, nil
}

// VerifyPaymentSignature implements PaymentGateway with the client's
// shared secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, c.keySecret)
}
