package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultRecvWindow is the request freshness tolerance sent to BingX, in milliseconds
const DefaultRecvWindow int64 = 5000

// Signer handles HMAC-SHA256 signing for BingX API requests
type Signer struct {
	apiKey     string
	apiSecret  string
	recvWindow int64
	now        func() time.Time
}

// NewSigner creates a new signer with default recv window
func NewSigner(apiKey, apiSecret string) *Signer {
	return NewSignerWithRecvWindow(apiKey, apiSecret, DefaultRecvWindow)
}

// NewSignerWithRecvWindow creates a new signer with custom recv window
func NewSignerWithRecvWindow(apiKey, apiSecret string, recvWindow int64) *Signer {
	return &Signer{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		recvWindow: recvWindow,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for the timestamp parameter
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// APIKey returns the API key
func (s *Signer) APIKey() string {
	return s.apiKey
}

// RecvWindow returns the recv window value
func (s *Signer) RecvWindow() int64 {
	return s.recvWindow
}

// Canonical returns the string that is signed: key=value pairs sorted by key
// and joined with '&'. Values are not URL-escaped, BingX recomputes the
// signature over the raw values.
func (s *Signer) Canonical(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(params.Get(key))
	}
	return b.String()
}

// Sign generates the hex encoded HMAC-SHA256 signature for the given parameters
func (s *Signer) Sign(params url.Values) string {
	h := hmac.New(sha256.New, []byte(s.apiSecret))
	h.Write([]byte(s.Canonical(params)))
	return hex.EncodeToString(h.Sum(nil))
}

// SignedRequest returns a copy of params with timestamp, recvWindow and signature set
func (s *Signer) SignedRequest(params url.Values) url.Values {
	signedParams := make(url.Values, len(params)+3)
	for key, values := range params {
		signedParams[key] = append([]string(nil), values...)
	}

	// Always set fresh timestamp
	signedParams.Set("timestamp", strconv.FormatInt(s.now().UnixMilli(), 10))

	if signedParams.Get("recvWindow") == "" {
		signedParams.Set("recvWindow", strconv.FormatInt(s.recvWindow, 10))
	}

	// Signature is computed last, over everything else
	signedParams.Del("signature")
	signedParams.Set("signature", s.Sign(signedParams))

	return signedParams
}

// ValidateSignature verifies if a signature is valid for given parameters
func (s *Signer) ValidateSignature(params url.Values, signature string) bool {
	expectedSignature := s.Sign(params)
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}
