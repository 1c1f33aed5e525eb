// Package payment wraps the external capture service. The service is a
// black box with at-least-once semantics, so every capture carries an
// idempotency key (the external order id).
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrDeclined = errors.New("payment declined")

type CaptureRequest struct {
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	CardToken      string  `json:"card_token"`
	IdempotencyKey string  `json:"-"`
}

type CaptureResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type Gateway interface {
	Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Capture(ctx context.Context, capture CaptureRequest) (*CaptureResult, error) {
	body, err := json.Marshal(capture)
	if err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/capture",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", capture.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrDeclined
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("capture failed with status %d", resp.StatusCode)
	}

	var result CaptureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode capture response: %w", err)
	}
	if result.Status != "" && result.Status != "succeeded" {
		return nil, fmt.Errorf("%w: status %s", ErrDeclined, result.Status)
	}
	return &result, nil
}
