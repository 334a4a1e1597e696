package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidResponse is returned when the exchange body is not JSON
var ErrInvalidResponse = errors.New("exchange response is not valid JSON")

// UpstreamError represents a failed call to the exchange. No retry is attempted.
type UpstreamError struct {
	Op         string
	StatusCode int // zero when no response was received
	Timeout    bool
	Err        error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: exchange HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	if e.Timeout {
		return fmt.Sprintf("%s: exchange timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is an upstream timeout
func IsTimeout(err error) bool {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Timeout
	}
	return isTimeoutError(err)
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// APIError represents an error reported in a BingX response body
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	HTTPStatus int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("BingX API error %d: %s", e.Code, e.Message)
}

// IsAuthError checks if this is an authentication error
func (e *APIError) IsAuthError() bool {
	authCodes := map[int]bool{
		100001: true, // Signature verification failed
		100413: true, // Incorrect apiKey
	}
	return authCodes[e.Code]
}

// IsTimestampError checks if the request fell outside recvWindow
func (e *APIError) IsTimestampError() bool {
	return e.Code == 100421
}

// ParseAPIError extracts a BingX error from a response body.
// Returns nil when the body carries code 0 or no code at all.
func ParseAPIError(status int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == 0 {
		return nil
	}
	apiErr.HTTPStatus = status
	return &apiErr
}
