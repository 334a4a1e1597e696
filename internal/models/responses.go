package models

import (
	"encoding/json"
	"time"
)

// Status values of the relay envelope
const (
	StatusOK = "ok"
)

// IndexMessage is returned by GET /
const IndexMessage = "OK. Use /health and POST /webhook"

// IndexResponse represents the root endpoint payload
type IndexResponse struct {
	Msg string `json:"msg"`
}

// HealthResponse represents the liveness payload
type HealthResponse struct {
	OK bool `json:"ok"`
}

// RelayResponse wraps the exchange response returned to the webhook caller
type RelayResponse struct {
	Status   string          `json:"status"`
	Exchange json.RawMessage `json:"exchange"`
}

// NewRelayResponse creates a relay envelope around the raw exchange body
func NewRelayResponse(exchange json.RawMessage) *RelayResponse {
	return &RelayResponse{
		Status:   StatusOK,
		Exchange: exchange,
	}
}

// HintResponse tells a caller how to use an endpoint
type HintResponse struct {
	Hint string `json:"hint"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(errorCode, message, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}

// Error codes
const (
	ErrCodeInvalidJSON      = "invalid_json"
	ErrCodeMalformedRequest = "MALFORMED_REQUEST"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeUpstreamError    = "UPSTREAM_ERROR"
	ErrCodeUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMetrics          = "METRICS_ERROR"
)
