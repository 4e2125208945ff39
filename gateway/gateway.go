// Package gateway is the HTTP client of the external Cart API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-cart/models"
	"storefront-cart/utils"
)

// ErrUnauthorized marks 401/403 answers: the caller's credential is expired or invalid.
var ErrUnauthorized = errors.New("gateway: credential rejected by cart api")

// APIError is a non-2xx answer other than 401/403.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("cart api returned status %d: %s", e.StatusCode, e.Message)
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAuthFallback
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAuthFallback:
		return "auth_fallback"
	default:
		return "error"
	}
}

// Result is the tagged outcome of a mutating call.
type Result struct {
	Outcome    Outcome
	Item       *models.RemoteCartItem
	StatusCode int
	Err        error
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Error returns nil for OutcomeOK and the underlying error otherwise.
func (r Result) Error() error {
	if r.Outcome == OutcomeOK {
		return nil
	}
	if r.Err == nil {
		return errors.New("gateway: call failed")
	}
	return r.Err
}

func failed(err error) Result {
	return Result{Outcome: OutcomeError, Err: err}
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

// AddItem creates or increments the caller's line for the product.
func (c *Client) AddItem(ctx context.Context, token string, req models.AddItemRequest) Result {
	userID, err := utils.ValidateID(req.UserID)
	if err != nil {
		return failed(fmt.Errorf("userId: %w", err))
	}
	productID, err := utils.ValidateID(req.ProductID)
	if err != nil {
		return failed(fmt.Errorf("productId: %w", err))
	}
	if req.Quantity < 1 {
		return failed(fmt.Errorf("gateway: quantity must be at least 1, got %d", req.Quantity))
	}
	req.UserID = userID
	req.ProductID = productID

	var item models.RemoteCartItem
	status, err := c.do(ctx, http.MethodPost, "/cart", token, req, &item)
	return toResult(status, err, &item)
}

// FetchCart returns the server-authoritative cart of userID.
func (c *Client) FetchCart(ctx context.Context, token, userID string) ([]models.RemoteCartItem, error) {
	id, err := utils.ValidateID(userID)
	if err != nil {
		return nil, err
	}

	var items []models.RemoteCartItem
	if _, err := c.do(ctx, http.MethodGet, "/cart/"+url.PathEscape(id), token, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.RemoteCartItem{}
	}
	return items, nil
}

// UpdateItem applies a partial update to one line item.
func (c *Client) UpdateItem(ctx context.Context, token, lineItemID string, patch models.ItemPatch) Result {
	id, err := utils.ValidateID(lineItemID)
	if err != nil {
		return failed(err)
	}

	var item models.RemoteCartItem
	status, err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(id), token, patch, &item)
	return toResult(status, err, &item)
}

// RemoveItem deletes one line item.
func (c *Client) RemoveItem(ctx context.Context, token, lineItemID string) Result {
	id, err := utils.ValidateID(lineItemID)
	if err != nil {
		return failed(err)
	}

	status, err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(id), token, nil, nil)
	return toResult(status, err, nil)
}

// FetchCount returns the server-computed item count, or 0 on any failure.
func (c *Client) FetchCount(ctx context.Context, token, userID string) int {
	id, ok := utils.FormatID(userID)
	if !ok {
		return 0
	}

	var resp models.CountResponse
	if _, err := c.do(ctx, http.MethodGet, "/cart/count/"+url.PathEscape(id), token, nil, &resp); err != nil {
		log.Printf("WARNING: cart count unavailable for %s: %v", id, err)
		return 0
	}
	return resp.Count
}

func toResult(status int, err error, item *models.RemoteCartItem) Result {
	switch {
	case err == nil:
		return Result{Outcome: OutcomeOK, Item: item, StatusCode: status}
	case errors.Is(err, ErrUnauthorized):
		return Result{Outcome: OutcomeAuthFallback, StatusCode: status, Err: err}
	default:
		return Result{Outcome: OutcomeError, StatusCode: status, Err: err}
	}
}

// do performs one JSON round trip. out may be nil.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cart api unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, fmt.Errorf("%w (status %d: %s)", ErrUnauthorized, resp.StatusCode, errorMessage(raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// errorMessage pulls the "error" field out of a gin.H style error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
