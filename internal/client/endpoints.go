package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/marketplace"
	"github.com/sudo-init-do/tgwork/internal/messaging"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/user"
)

// SaveResult is the answer to SaveUser. Token is refreshed on every save.
type SaveResult struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Feed struct {
	Kind     marketplace.Kind      `json:"kind"`
	Category string                `json:"category"`
	Items    []marketplace.Listing `json:"items"`
}

type ReviewResult struct {
	Email   string  `json:"email"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

func (c *Client) GetUser(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+escape(email), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser registers u when the email is new and otherwise replaces the
// caller's own record.
func (c *Client) SaveUser(ctx context.Context, u *models.User) (*SaveResult, error) {
	var res SaveResult
	if err := c.do(ctx, http.MethodPost, "/api/users/save", u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) AllUsers(ctx context.Context) (map[string]models.User, error) {
	out := map[string]models.User{}
	if err := c.do(ctx, http.MethodGet, "/api/users/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context, email string) (*user.Profile, error) {
	var p user.Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/"+escape(email)+"/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var res struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &res); err != nil {
		return nil, err
	}
	return res.Categories, nil
}

// Feed lists other users' listings. Empty kind lets the server pick by
// account type; empty category means every category.
func (c *Client) Feed(ctx context.Context, kind marketplace.Kind, category string) (*Feed, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", string(kind))
	}
	if category != "" {
		q.Set("category", category)
	}
	path := "/api/marketplace"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var f Feed
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateService(ctx context.Context, req marketplace.CreateServiceRequest) (*models.Service, error) {
	var res struct {
		Service models.Service `json:"service"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/services", req, &res); err != nil {
		return nil, err
	}
	return &res.Service, nil
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/services/"+escape(id), nil, nil)
}

func (c *Client) MyServices(ctx context.Context) ([]models.Service, error) {
	var res struct {
		Services []models.Service `json:"services"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/services/me", nil, &res); err != nil {
		return nil, err
	}
	return res.Services, nil
}

func (c *Client) UpdateServiceStatus(ctx context.Context, id string, status models.ServiceStatus) (*models.Service, error) {
	var res struct {
		Service models.Service `json:"service"`
	}
	body := marketplace.StatusRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPost, "/api/services/"+escape(id)+"/status", body, &res); err != nil {
		return nil, err
	}
	return &res.Service, nil
}

func (c *Client) CreateOrder(ctx context.Context, req marketplace.CreateOrderRequest) (*models.Order, error) {
	var res struct {
		Order models.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &res); err != nil {
		return nil, err
	}
	return &res.Order, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+escape(id), nil, nil)
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var res struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders/me", nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	var res struct {
		Order models.Order `json:"order"`
	}
	body := marketplace.StatusRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+escape(id)+"/status", body, &res); err != nil {
		return nil, err
	}
	return &res.Order, nil
}

func (c *Client) PlaceBid(ctx context.Context, orderID, message string) (*models.Bid, error) {
	var res struct {
		Bid models.Bid `json:"bid"`
	}
	body := marketplace.BidRequest{Message: message}
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+escape(orderID)+"/bids", body, &res); err != nil {
		return nil, err
	}
	return &res.Bid, nil
}

func (c *Client) Bids(ctx context.Context, orderID string) ([]models.Bid, error) {
	var res struct {
		Bids []models.Bid `json:"bids"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+escape(orderID)+"/bids", nil, &res); err != nil {
		return nil, err
	}
	return res.Bids, nil
}

func (c *Client) Review(ctx context.Context, email string, rating int, comment string) (*ReviewResult, error) {
	var res ReviewResult
	body := marketplace.ReviewRequest{Rating: rating, Comment: comment}
	if err := c.do(ctx, http.MethodPost, "/api/users/"+escape(email)+"/reviews", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestPasswordReset asks the server to mail a reset link. The answer is
// the same whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := auth.RequestPasswordResetRequest{Email: email}
	return c.do(ctx, http.MethodPost, "/api/auth/password/request", body, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := auth.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/password/reset", body, nil)
}

// SendMessage writes in an order chat. to is required from the order owner
// and ignored from a bidder.
func (c *Client) SendMessage(ctx context.Context, orderID, to, text string) (*models.Message, error) {
	var res struct {
		Message models.Message `json:"message"`
	}
	body := messaging.SendRequest{Text: text, To: to}
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+escape(orderID)+"/messages", body, &res); err != nil {
		return nil, err
	}
	return &res.Message, nil
}

// Messages lists the caller's view of an order chat; with narrows the
// owner's view to one bidder.
func (c *Client) Messages(ctx context.Context, orderID, with string) ([]models.Message, error) {
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	path := "/api/orders/" + escape(orderID) + "/messages"
	if with != "" {
		path += "?" + url.Values{"with": {with}}.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (c *Client) MarkMessageRead(ctx context.Context, orderID, messageID string) error {
	return c.do(ctx, http.MethodPost, "/api/orders/"+escape(orderID)+"/messages/"+escape(messageID)+"/read", nil, nil)
}
