// Package gateway is the REST client for the sync gateway, the sole
// arbiter of order identity and status validity. Every mutation here must
// succeed before local state is allowed to change.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultTimeout caps every gateway request; a hung request must not
// leave the client in a loading state forever.
const DefaultTimeout = 15 * time.Second

// Errors returned by the gateway client.
var (
	ErrNoBaseURL    = errors.New("gateway base URL is not configured")
	ErrNoCredential = errors.New("no credential available")
	ErrUnauthorized = errors.New("credential rejected by gateway")
	ErrNotFound     = errors.New("not found")
)

// StatusError is returned for non-2xx responses not covered by a
// sentinel error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Code, e.Body)
}

// CredentialSource supplies the current bearer token; an empty string
// means no credential. Satisfied by *session.Store.
type CredentialSource interface {
	Credential() string
}

// Client talks to the gateway's REST endpoints.
type Client struct {
	http    *resty.Client
	baseURL string
	creds   CredentialSource
	log     zerolog.Logger
}

// New creates a gateway client. A missing base URL is tolerated here so
// the terminal can run offline on the default menu; every network action
// then fails fast with ErrNoBaseURL.
func New(baseURL string, timeout time.Duration, creds CredentialSource, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: httpc, baseURL: baseURL, creds: creds, log: log}
}

// ready guards every call: a missing base URL is a configuration error
// surfaced per attempted action, never retried automatically.
func (c *Client) ready() error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}
	return nil
}

// Login authenticates and extracts the bearer token from whichever of
// the gateway's response shapes it arrives in.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := c.ready(); err != nil {
		return LoginResult{}, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/api/auth/login")
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return LoginResult{}, c.statusError(resp)
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return LoginResult{}, fmt.Errorf("login: decode response: %w", err)
	}
	token := body.token()
	if token == "" {
		return LoginResult{}, fmt.Errorf("login: no token in response")
	}
	return LoginResult{Token: token, User: body.User}, nil
}

// ListProducts fetches the catalog. The endpoint is public; callers are
// responsible for falling back to the built-in menu on failure.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	var products []Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&products).
		Get("/api/products")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return nil, c.statusError(resp)
	}
	return products, nil
}

// CreateProduct adds a catalog row. Admin-only; bearer-authenticated.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	token, err := c.token()
	if err != nil {
		return Product{}, err
	}
	var created Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(input).
		SetResult(&created).
		Post("/api/products")
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	if resp.IsError() {
		return Product{}, c.statusError(resp)
	}
	return created, nil
}

// UpdateProduct replaces a catalog row. Admin-only.
func (c *Client) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	token, err := c.token()
	if err != nil {
		return Product{}, err
	}
	var updated Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(input).
		SetResult(&updated).
		Put(fmt.Sprintf("/api/products/%d", id))
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	if resp.IsError() {
		return Product{}, c.statusError(resp)
	}
	return updated, nil
}

// DeleteProduct removes a catalog row. Admin-only.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Delete(fmt.Sprintf("/api/products/%d", id))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if resp.IsError() {
		return c.statusError(resp)
	}
	return nil
}

// ListOrders fetches every order visible to the caller.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	return c.listOrders(ctx, "/api/orders")
}

// ListMyOrders fetches only the caller's own orders.
func (c *Client) ListMyOrders(ctx context.Context) ([]Order, error) {
	return c.listOrders(ctx, "/api/orders/me")
}

func (c *Client) listOrders(ctx context.Context, path string) ([]Order, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	var orders []Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&orders).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if resp.IsError() {
		return nil, c.statusError(resp)
	}
	return orders, nil
}

// CreateOrder submits a confirmed draft. The gateway assigns the order
// identity; the returned order is the persisted record.
func (c *Client) CreateOrder(ctx context.Context, items []OrderItemInput) (Order, error) {
	token, err := c.token()
	if err != nil {
		return Order{}, err
	}
	var created Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(createOrderRequest{Items: items}).
		SetResult(&created).
		Post("/api/orders")
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		return Order{}, c.statusError(resp)
	}
	return created, nil
}

// UpdateOrderStatus requests a status transition. Callers must not touch
// local state unless this returns nil.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(updateStatusRequest{Status: newStatus}).
		Put(fmt.Sprintf("/api/orders/%d/status", orderID))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if resp.IsError() {
		return c.statusError(resp)
	}
	return nil
}

// token returns the current credential or ErrNoCredential. Protected
// calls never reach the network without one.
func (c *Client) token() (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	tok := c.creds.Credential()
	if tok == "" {
		return "", ErrNoCredential
	}
	return tok, nil
}

func (c *Client) statusError(resp *resty.Response) error {
	code := resp.StatusCode()
	switch code {
	case 401, 403:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, code)
	case 404:
		return ErrNotFound
	}
	c.log.Debug().Int("status", code).Str("body", string(resp.Body())).Msg("gateway error response")
	return &StatusError{Code: code, Body: string(resp.Body())}
}
