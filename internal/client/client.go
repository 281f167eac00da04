// Package client is a Go client for the FeatherMart HTTP API that keeps an
// optimistic copy of the caller's cart.
//
// Every cart mutation is applied to the cached cart first, then sent to the
// server. The server's cart replaces the cache on success; on failure the
// cache is rolled back and the error returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"feathermart/internal/domain"
	"github.com/google/uuid"
)

const anonymousTokenHeader = "X-Anonymous-Token"

// APIError is a non-2xx response decoded from {"error","code"}.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

var codeErrors = map[string]error{
	"authentication_required":    domain.ErrAuthenticationRequired,
	"empty_cart":                 domain.ErrEmptyCart,
	"missing_product_context":    domain.ErrMissingProductContext,
	"product_not_found":          domain.ErrProductNotFound,
	"not_found":                  domain.ErrNotFound,
	"invalid_request":            domain.ErrInvalidRequest,
	"storage_unavailable":        domain.ErrStorageUnavailable,
	"order_creation_failed":      domain.ErrOrderCreationFailed,
	"order_line_creation_failed": domain.ErrOrderLineCreationFailed,
	"forbidden":                  domain.ErrForbidden,
}

// Unwrap lets callers match API errors with errors.Is against domain errors.
func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}

type Client struct {
	baseURL string
	http    *http.Client

	mu             sync.Mutex
	accessToken    string
	anonymousToken string
	cart           *domain.Cart
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cart:    domain.NewCart(nil),
	}
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) AnonymousToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anonymousToken
}

// Cart returns a copy of the cached cart.
func (c *Client) Cart() *domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneCart(c.cart)
}

// Refresh replaces the cache with the server's cart. Call it when the
// application regains focus.
func (c *Client) Refresh(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	c.replace(&cart)
	return c.Cart(), nil
}

// AddItem adds quantity of product. The product supplies the snapshot shown
// until the server answers and the snapshot guest carts are stored with.
func (c *Client) AddItem(ctx context.Context, product domain.Product, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	snap := product.Snapshot()
	body := map[string]any{"productId": product.ID, "quantity": quantity, "product": snap}
	return c.mutate(ctx, http.MethodPost, "/cart/items", body, func(cart *domain.Cart) {
		if i := cart.LineByProduct(product.ID); i >= 0 {
			cart.Lines[i].Quantity += quantity
			return
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:        "local-" + uuid.NewString(),
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   snap,
			CreatedAt: time.Now().UTC(),
		})
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (c *Client) UpdateQuantity(ctx context.Context, lineID, productID string, quantity int) (*domain.Cart, error) {
	body := map[string]any{"quantity": quantity, "productId": productID}
	return c.mutate(ctx, http.MethodPatch, "/cart/items/"+url.PathEscape(lineID), body, func(cart *domain.Cart) {
		i := lineIndex(cart, lineID, productID)
		if i < 0 {
			return
		}
		if quantity <= 0 {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return
		}
		cart.Lines[i].Quantity = quantity
	})
}

func (c *Client) RemoveItem(ctx context.Context, lineID, productID string) (*domain.Cart, error) {
	path := "/cart/items/" + url.PathEscape(lineID)
	if productID != "" {
		path += "?productId=" + url.QueryEscape(productID)
	}
	return c.mutate(ctx, http.MethodDelete, path, nil, func(cart *domain.Cart) {
		if i := lineIndex(cart, lineID, productID); i >= 0 {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		}
	})
}

func (c *Client) Clear(ctx context.Context) (*domain.Cart, error) {
	return c.mutate(ctx, http.MethodDelete, "/cart", nil, func(cart *domain.Cart) {
		cart.Lines = []domain.CartLine{}
	})
}

// Login exchanges credentials for an access token. The current guest session
// is sent along so the server merges the guest cart, and the cache is then
// refreshed from the merged cart.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/token", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.accessToken = resp.AccessToken
	c.anonymousToken = ""
	c.mu.Unlock()
	_, err := c.Refresh(ctx)
	return err
}

// PlaceOrder checks out the server cart and empties the cache.
func (c *Client) PlaceOrder(ctx context.Context, address domain.ShippingAddress) (string, error) {
	var resp struct {
		OrderID string `json:"orderId"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", map[string]any{"shippingAddress": address}, &resp); err != nil {
		return "", err
	}
	c.replace(domain.NewCart(nil))
	return resp.OrderID, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body any, apply func(*domain.Cart)) (*domain.Cart, error) {
	c.mu.Lock()
	previous := cloneCart(c.cart)
	optimistic := cloneCart(c.cart)
	apply(optimistic)
	optimistic.Recalculate()
	c.cart = optimistic
	c.mu.Unlock()

	var server domain.Cart
	if err := c.do(ctx, method, path, body, &server); err != nil {
		c.replace(previous)
		return nil, err
	}
	c.replace(&server)
	return c.Cart(), nil
}

func (c *Client) replace(cart *domain.Cart) {
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	cart.Recalculate()
	c.mu.Lock()
	c.cart = cart
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	access, anon := c.accessToken, c.anonymousToken
	c.mu.Unlock()
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if anon != "" {
		req.Header.Set(anonymousTokenHeader, anon)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(anonymousTokenHeader); token != "" {
		c.mu.Lock()
		c.anonymousToken = token
		c.mu.Unlock()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func lineIndex(cart *domain.Cart, lineID, productID string) int {
	for i, l := range cart.Lines {
		if (lineID != "" && l.ID == lineID) || (productID != "" && l.ProductID == productID) {
			return i
		}
	}
	return -1
}

func cloneCart(cart *domain.Cart) *domain.Cart {
	if cart == nil {
		return domain.NewCart(nil)
	}
	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	return domain.NewCart(lines)
}
