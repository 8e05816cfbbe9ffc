package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultRating is applied when the client confirms delivery without picking
// a rating.
const DefaultRating = 4

// CreateOrderInput is the order form. Color travels as a {"text": ...}
// object on the wire; city is taken from the profile server-side.
type CreateOrderInput struct {
	Flower            string  `json:"flower" validate:"required"`
	Color             TextRef `json:"color" validate:"required"`
	FlowerHeight      string  `json:"flower_height" validate:"required"`
	Quantity          int     `json:"quantity" validate:"required,gt=0"`
	Decoration        bool    `json:"decoration"`
	RecipientsAddress string  `json:"recipients_address" validate:"required"`
	RecipientsPhone   string  `json:"recipients_phone" validate:"required"`
	FlowerData        string  `json:"flower_data"`
}

// CreateOrder places a new order. The server rejects it with 409 when the
// client already has an active order.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreatedOrder, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}

	var order CreatedOrder
	if err := c.do(ctx, http.MethodPost, "/client/order/", nil, in, nil, &order); err != nil {
		return nil, err
	}
	c.log.Info("order created", zap.String("uuid", order.UUID))
	return &order, nil
}

// CancelOrder cancels the order with a mandatory reason. The reason is
// checked locally before any network call.
func (c *Client) CancelOrder(ctx context.Context, orderUUID, reason string) (*CurrentOrder, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Fields: []string{"reason"}}
	}

	body := map[string]string{"reason": reason}
	var resp struct {
		Detail string       `json:"detail"`
		Order  CurrentOrder `json:"order"`
	}
	path := fmt.Sprintf("/client/%s/cancel/", orderUUID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil, &resp); err != nil {
		return nil, err
	}
	c.log.Info("order canceled", zap.String("uuid", orderUUID))
	return &resp.Order, nil
}

// ProposedPrices lists the open offers on the client's pending order. An
// empty slice means no offers yet, or no pending order at all.
func (c *Client) ProposedPrices(ctx context.Context) ([]ProposedPrice, error) {
	prices := []ProposedPrice{}
	if err := c.do(ctx, http.MethodGet, "/client/proposed-prices/", nil, nil, nil, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// AcceptProposal accepts the offer, moving the order to accepted at the
// offered price. A 409 means the offer expired or another one won first.
func (c *Client) AcceptProposal(ctx context.Context, proposalUUID string) (*CurrentOrder, error) {
	var order CurrentOrder
	path := fmt.Sprintf("/client/prices/%s/accept/", proposalUUID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, nil, &order); err != nil {
		return nil, err
	}
	c.log.Info("proposal accepted", zap.String("proposal", proposalUUID), zap.String("price", order.Price))
	return &order, nil
}

// RejectProposal dismisses the offer so it no longer appears in the list.
func (c *Client) RejectProposal(ctx context.Context, proposalUUID string) error {
	path := fmt.Sprintf("/client/prices/%s/cancel/", proposalUUID)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil, nil)
}

// OrderHistory returns the client's past orders, newest first.
func (c *Client) OrderHistory(ctx context.Context) ([]HistoryOrder, error) {
	orders := []HistoryOrder{}
	if err := c.do(ctx, http.MethodGet, "/client/order-history/", nil, nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// RateOrder submits a 1 to 5 rating for the order. Repeated ratings are
// ignored server-side.
func (c *Client) RateOrder(ctx context.Context, orderUUID string, rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Fields: []string{"rating"}}
	}

	body := map[string]int{"rating": rating}
	path := fmt.Sprintf("/client/rate/%s/", orderUUID)
	return c.do(ctx, http.MethodPost, path, nil, body, nil, nil)
}

// CompleteOrder marks the order as delivered from the client side.
func (c *Client) CompleteOrder(ctx context.Context, orderUUID string) (*StatusChange, error) {
	body := map[string]string{"status": StatusCompleted}
	var change StatusChange
	path := fmt.Sprintf("/client/order-status/%s/", orderUUID)
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// ConfirmDelivery rates the order and then completes it, in that order. When
// the rating lands but the completion fails, the rating is not resubmitted
// on retry since RateOrder is idempotent.
func (c *Client) ConfirmDelivery(ctx context.Context, orderUUID string, rating int) (*StatusChange, error) {
	if rating == 0 {
		rating = DefaultRating
	}
	if err := c.RateOrder(ctx, orderUUID, rating); err != nil {
		return nil, fmt.Errorf("rate order: %w", err)
	}
	change, err := c.CompleteOrder(ctx, orderUUID)
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	c.log.Info("delivery confirmed", zap.String("uuid", orderUUID), zap.Int("rating", rating))
	return change, nil
}

// Flowers returns the flower catalog.
func (c *Client) Flowers(ctx context.Context) ([]ReferenceEntry, error) {
	entries := []ReferenceEntry{}
	if err := c.do(ctx, http.MethodGet, "/flowers/", nil, nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Colors returns the color catalog.
func (c *Client) Colors(ctx context.Context) ([]ReferenceEntry, error) {
	entries := []ReferenceEntry{}
	if err := c.do(ctx, http.MethodGet, "/colors/", nil, nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
