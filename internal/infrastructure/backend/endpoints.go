package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"storefront-client/internal/domain"

	"github.com/goccy/go-json"
)

// call sends one JSON request and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, &Request{Method: method, Path: path, Body: body}, out)
}

func (c *Client) do(ctx context.Context, req *Request, out interface{}) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &domain.APIError{Status: resp.StatusCode, Message: resp.Message()}
	}
	return resp.Decode(out)
}

func segment(s string) string {
	return url.PathEscape(s)
}

// --- domain.AuthGateway ---

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	req := &Request{Method: http.MethodPost, Path: "/user/login", Body: creds, Anonymous: true}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Signup(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	req := &Request{Method: http.MethodPost, Path: "/user/signup", Body: creds, Anonymous: true}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CheckAuth(ctx context.Context) (*domain.User, error) {
	var res struct {
		User *domain.User `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/user/check-auth", nil, &res); err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, domain.ErrNoSession
	}
	return res.User, nil
}

// --- domain.CouponSource ---

// FetchCoupon accepts both `{coupon: {...}}` and a bare coupon body.
func (c *Client) FetchCoupon(ctx context.Context, code, userID string) (*domain.Coupon, error) {
	var raw json.RawMessage
	body := map[string]string{"code": code, "userId": userID}
	if err := c.call(ctx, http.MethodPost, "/user/apply-coupon", body, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Coupon *domain.Coupon `json:"coupon"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Coupon != nil {
		return wrapped.Coupon, nil
	}
	var coupon domain.Coupon
	if err := json.Unmarshal(raw, &coupon); err != nil {
		return nil, fmt.Errorf("decode coupon: %w", err)
	}
	if coupon.Code == "" {
		coupon.Code = code
	}
	return &coupon, nil
}

// --- domain.OrderGateway ---

func (c *Client) PlaceOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var res struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Order   *domain.Order `json:"order"`
	}
	if err := c.call(ctx, http.MethodPost, "/user/placeorder", order, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &domain.APIError{Status: http.StatusOK, Message: res.Message}
	}
	if res.Order == nil {
		placed := *order
		return &placed, nil
	}
	return res.Order, nil
}

func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.call(ctx, http.MethodPost, "/user/clearcart/"+segment(userID), nil, nil)
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.call(ctx, http.MethodPost, "/user/cancelOrder/"+segment(orderID), nil, nil)
}

func (c *Client) RequestReturn(ctx context.Context, orderID, reason string) error {
	body := map[string]string{"reason": reason}
	return c.call(ctx, http.MethodPost, "/user/requestReturn/"+segment(orderID), body, nil)
}

// --- domain.CartGateway ---

type cartEnvelope struct {
	Cart  *domain.Cart          `json:"cart"`
	Items []domain.CartLineItem `json:"items"`
}

func (e cartEnvelope) unwrap(userID string) *domain.Cart {
	if e.Cart != nil {
		if e.Cart.UserID == "" {
			e.Cart.UserID = userID
		}
		return e.Cart
	}
	return &domain.Cart{UserID: userID, Items: e.Items}
}

func (c *Client) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var res cartEnvelope
	if err := c.call(ctx, http.MethodGet, "/user/getcartdetails/"+segment(userID), nil, &res); err != nil {
		return nil, err
	}
	return res.unwrap(userID), nil
}

func (c *Client) UpdateCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	body := map[string]interface{}{"userId": userID, "productId": productID, "quantity": quantity}
	var res cartEnvelope
	if err := c.call(ctx, http.MethodPost, "/user/updatecart", body, &res); err != nil {
		return nil, err
	}
	return res.unwrap(userID), nil
}

func (c *Client) RemoveFromCart(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	path := "/user/removefromcart/" + segment(userID) + "/" + segment(productID)
	var res cartEnvelope
	if err := c.call(ctx, http.MethodDelete, path, nil, &res); err != nil {
		return nil, err
	}
	return res.unwrap(userID), nil
}

var (
	_ domain.AuthGateway  = (*Client)(nil)
	_ domain.CouponSource = (*Client)(nil)
	_ domain.OrderGateway = (*Client)(nil)
	_ domain.CartGateway  = (*Client)(nil)
)
