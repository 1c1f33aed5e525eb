package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mkravets/storefront/internal/transport"
)

// Session carries the credentials for one authenticated user. It is
// created at login, passed explicitly into every call, and discarded at
// logout; nothing in this package reads tokens from ambient state.
type Session struct {
	Token string
}

func NewSession(token string) *Session {
	return &Session{Token: token}
}

// APIError is a non-2xx response from the cart endpoints, carrying the
// message from the response envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cart api: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) GetCart(ctx context.Context, s *Session) (*transport.CartView, error) {
	return c.do(ctx, s, http.MethodGet, "/api/cart", nil)
}

func (c *Client) AddItem(ctx context.Context, s *Session, productID, quantity uint) (*transport.CartView, error) {
	body := transport.AddItemRequest{ProductID: productID, Quantity: quantity}
	return c.do(ctx, s, http.MethodPost, "/api/cart", body)
}

func (c *Client) UpdateLine(ctx context.Context, s *Session, lineID, quantity uint) (*transport.CartView, error) {
	body := transport.UpdateLineRequest{Quantity: quantity}
	return c.do(ctx, s, http.MethodPut, fmt.Sprintf("/api/cart/%d", lineID), body)
}

func (c *Client) RemoveLine(ctx context.Context, s *Session, lineID uint) (*transport.CartView, error) {
	return c.do(ctx, s, http.MethodDelete, fmt.Sprintf("/api/cart/%d", lineID), nil)
}

func (c *Client) ClearCart(ctx context.Context, s *Session) (*transport.CartView, error) {
	return c.do(ctx, s, http.MethodDelete, "/api/cart", nil)
}

func (c *Client) do(ctx context.Context, s *Session, method, path string, body any) (*transport.CartView, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool               `json:"success"`
		Data    transport.CartView `json:"data"`
		Message string             `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	return &envelope.Data, nil
}
