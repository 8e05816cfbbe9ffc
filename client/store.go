package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ProposePriceInput is a store's offer on a pending order.
type ProposePriceInput struct {
	// ProposedPrice is a decimal amount rendered as a string, e.g. "5000".
	ProposedPrice string
	Comment       string

	FlowerImgName   string
	FlowerImgReader io.Reader
}

// IncomingOrders lists pending orders the store has not yet offered on.
func (c *Client) IncomingOrders(ctx context.Context) ([]IncomingOrder, error) {
	orders := []IncomingOrder{}
	if err := c.do(ctx, http.MethodGet, "/store/orders/", nil, nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ProposePrice submits an offer on the order. The price must be a positive
// number; one offer per order per store, so a second call gets a 409.
func (c *Client) ProposePrice(ctx context.Context, orderUUID string, in ProposePriceInput) (*ProposedPrice, error) {
	price := strings.TrimSpace(in.ProposedPrice)
	if price == "" {
		return nil, &ValidationError{Fields: []string{"proposed_price"}}
	}
	if v, err := strconv.ParseFloat(price, 64); err != nil || v <= 0 {
		return nil, &ValidationError{Fields: []string{"proposed_price"}}
	}

	payload := &multipartPayload{
		fields: map[string]string{"proposed_price": price},
		files:  map[string]filePayload{},
	}
	if in.Comment != "" {
		payload.fields["comment"] = in.Comment
	}
	if in.FlowerImgReader != nil {
		payload.files["flower_img"] = filePayload{name: in.FlowerImgName, reader: in.FlowerImgReader}
	}

	var proposal ProposedPrice
	path := fmt.Sprintf("/store/propose-price/%s/", orderUUID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, payload, &proposal); err != nil {
		return nil, err
	}
	c.log.Info("price proposed", zap.String("order", orderUUID), zap.String("price", price))
	return &proposal, nil
}

// AdvanceOrder moves a won order forward. Only accepted, in_transit and
// completed are valid targets; the server enforces the actual transition.
func (c *Client) AdvanceOrder(ctx context.Context, orderUUID, status string) (*StatusChange, error) {
	switch status {
	case StatusAccepted, StatusInTransit, StatusCompleted:
	default:
		return nil, &ValidationError{Fields: []string{"status"}}
	}

	body := map[string]string{"status": status}
	var change StatusChange
	path := fmt.Sprintf("/store/order-status/%s/", orderUUID)
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil, &change); err != nil {
		return nil, err
	}
	c.log.Info("order advanced", zap.String("uuid", orderUUID), zap.String("status", change.Status))
	return &change, nil
}

// History returns one page of the store's proposal history. With relevant
// set, only entries still in play are returned: open offers on pending
// orders and won orders not yet finished.
func (c *Client) History(ctx context.Context, page int, relevant bool) (*StoreHistoryPage, error) {
	query := url.Values{}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	if relevant {
		query.Set("isRelevant", "true")
	}

	var result StoreHistoryPage
	if err := c.do(ctx, http.MethodGet, "/store/history/", query, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
