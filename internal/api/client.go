// Package api is the HTTP client for the remote Mool Granth backend:
// product catalog, auth, contact and the account-view order/cart mirror.
// The local store stays authoritative for the storefront regardless of
// what these endpoints return.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteError reports a non-2xx response from the backend.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service returned %d: %s", e.Status, e.Body)
}

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func New(base string, log *zap.Logger) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

func (c *Client) Products(ctx context.Context) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := c.getJSON(ctx, "/products", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(id), "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, mobile, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/auth/login", "", map[string]string{
		"mobile":   mobile,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, name, mobile, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/auth/register", "", map[string]string{
		"name":     name,
		"mobile":   mobile,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Contact(ctx context.Context, name, email, message string) error {
	return c.postJSON(ctx, "/contact", "", map[string]string{
		"name":    name,
		"email":   email,
		"message": message,
	}, nil)
}

// Orders fetches server-side orders for the account view. userKey is the
// customer's mobile number.
func (c *Client) Orders(ctx context.Context, userKey, token string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	if err := c.getJSON(ctx, "/orders/"+url.PathEscape(userKey), token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CartMirror(ctx context.Context, userID, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, "/cart/user/"+url.PathEscape(userID), token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCartMirror(ctx context.Context, productID string, quantity int, token string) error {
	return c.postJSON(ctx, "/cart", token, map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}, nil)
}

func (c *Client) RemoveCartMirror(ctx context.Context, productID, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/cart/"+url.PathEscape(productID), nil)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := c.do(req, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, token, dest)
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, dest any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token, dest)
}

func (c *Client) do(req *http.Request, token string, dest any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	c.log.Debug("backend call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RemoteError{Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
