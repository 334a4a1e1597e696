package rest

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"webhookrelay/internal/models"
)

// OrderRequest represents a spot order placement request
type OrderRequest struct {
	Symbol   string
	Side     string
	Type     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// NewOrderRequest builds an order request from a validated signal.
// The note field is informational and never forwarded.
func NewOrderRequest(s *models.Signal) *OrderRequest {
	req := &OrderRequest{
		Symbol: s.Symbol,
		Side:   s.Side,
		Type:   s.Type,
	}
	if s.Qty != nil {
		req.Quantity = *s.Qty
	}
	if s.HasPrice() {
		req.Price = *s.Price
	}
	return req
}

// Params returns the unsigned order parameters. price is only present when non-zero.
func (r *OrderRequest) Params() url.Values {
	params := url.Values{}
	params.Set("symbol", r.Symbol)
	params.Set("side", r.Side)
	params.Set("type", r.Type)
	params.Set("quantity", r.Quantity.String())

	if !r.Price.IsZero() {
		params.Set("price", r.Price.String())
	}

	return params
}

// Response is the exchange reply relayed back to the webhook caller
type Response struct {
	StatusCode int
	Body       json.RawMessage
	Duration   time.Duration
}

// APIError returns the exchange error carried in the body, or nil on success
func (r *Response) APIError() *APIError {
	return ParseAPIError(r.StatusCode, r.Body)
}
