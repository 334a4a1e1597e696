package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order sides accepted from a signal
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order types accepted from a signal
const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

// Signal represents an inbound trading instruction, e.g. a TradingView alert
type Signal struct {
	Symbol string           `json:"symbol"`
	Side   string           `json:"side"` // BUY or SELL
	Type   string           `json:"type"` // MARKET or LIMIT
	Qty    *decimal.Decimal `json:"qty"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Note   string           `json:"note,omitempty"`
}

// Normalize normalizes the signal data
func (s *Signal) Normalize() {
	s.Symbol = strings.TrimSpace(s.Symbol)
	s.Side = strings.ToUpper(strings.TrimSpace(s.Side))
	s.Type = strings.ToUpper(strings.TrimSpace(s.Type))
}

// Validate checks the signal shape. Every failure wraps ErrMalformedRequest.
func (s *Signal) Validate() error {
	if s.Symbol == "" {
		return NewValidationError("symbol", "is required")
	}

	switch s.Side {
	case "":
		return NewValidationError("side", "is required")
	case SideBuy, SideSell:
	default:
		return NewValidationError("side", "must be BUY or SELL, got "+s.Side)
	}

	switch s.Type {
	case "":
		return NewValidationError("type", "is required")
	case OrderTypeMarket, OrderTypeLimit:
	default:
		return NewValidationError("type", "must be MARKET or LIMIT, got "+s.Type)
	}

	if s.Qty == nil {
		return NewValidationError("qty", "is required")
	}
	if !s.Qty.IsPositive() {
		return NewValidationError("qty", "must be positive")
	}

	if s.Price != nil && s.Price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	if s.Type == OrderTypeLimit && !s.HasPrice() {
		return NewValidationError("price", "is required for LIMIT orders")
	}

	return nil
}

// HasPrice reports whether the signal carries a non-zero price
func (s *Signal) HasPrice() bool {
	return s.Price != nil && !s.Price.IsZero()
}
