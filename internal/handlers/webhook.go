package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"webhookrelay/internal/metrics"
	"webhookrelay/internal/models"
	"webhookrelay/internal/rest"
)

// DefaultMaxBodyBytes caps an inbound webhook body
const DefaultMaxBodyBytes int64 = 1 << 20

// OrderPlacer forwards a signed order to the exchange
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req *rest.OrderRequest) (*rest.Response, error)
}

// RelayRecorder receives per-signal metrics
type RelayRecorder interface {
	RecordRelay(side, orderType, outcome string)
	RecordExchangeResponse(status int, latency float64)
}

// WebhookConfig controls how exchange replies are relayed
type WebhookConfig struct {
	// MaskUpstream5xx answers 200 when the exchange answered >= 500
	MaskUpstream5xx bool
	MaxBodyBytes    int64
}

// WebhookHandlers relays trading signals to the exchange
type WebhookHandlers struct {
	placer   OrderPlacer
	recorder RelayRecorder
	logger   zerolog.Logger
	config   WebhookConfig
}

// NewWebhookHandlers creates webhook handlers. recorder may be nil.
func NewWebhookHandlers(placer OrderPlacer, recorder RelayRecorder, logger zerolog.Logger, config WebhookConfig) *WebhookHandlers {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &WebhookHandlers{
		placer:   placer,
		recorder: recorder,
		logger:   logger,
		config:   config,
	}
}

// Relay returns the handler for POST /webhook
func (h *WebhookHandlers) Relay() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")
		logger := h.logger.With().Str("request_id", requestID).Logger()

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxBodyBytes)

		var signal models.Signal
		if status, code, err := decodeSignal(c.Request.Body, &signal); err != nil {
			logger.Warn().
				Err(err).
				Str("remote_addr", c.ClientIP()).
				Msg("Rejected webhook body")
			h.recorder.RecordRelay("", "", metrics.OutcomeRejected)
			c.JSON(status, models.NewErrorResponse(code, err.Error(), requestID))
			return
		}

		signal.Normalize()
		if err := signal.Validate(); err != nil {
			logger.Warn().
				Err(err).
				Str("symbol", signal.Symbol).
				Msg("Rejected malformed signal")
			h.recorder.RecordRelay(signal.Side, signal.Type, metrics.OutcomeRejected)
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeMalformedRequest, err.Error(), requestID))
			return
		}

		order := rest.NewOrderRequest(&signal)

		logger.Info().
			Str("symbol", order.Symbol).
			Str("side", order.Side).
			Str("type", order.Type).
			Str("quantity", order.Quantity.String()).
			Str("price", order.Price.String()).
			Str("note", signal.Note).
			Msg("Received signal")

		// A caller hanging up must not abort an order already on its way;
		// the REST client timeout still bounds the call.
		ctx := context.WithoutCancel(c.Request.Context())

		start := time.Now()
		resp, err := h.placer.PlaceOrder(ctx, order)
		if err != nil {
			h.failUpstream(c, logger, &signal, err, time.Since(start))
			return
		}

		status := h.relayStatus(resp.StatusCode)
		outcome := metrics.OutcomeRelayed
		event := logger.Info()

		if apiErr := resp.APIError(); apiErr != nil {
			outcome = metrics.OutcomeExchangeError
			event = logger.Warn().
				Int("code", apiErr.Code).
				Str("msg", apiErr.Message).
				Bool("auth_error", apiErr.IsAuthError()).
				Bool("timestamp_error", apiErr.IsTimestampError())
		}
		if status != resp.StatusCode {
			outcome = metrics.OutcomeMasked
		}

		event.
			Int("exchange_status", resp.StatusCode).
			Int("status", status).
			RawJSON("exchange", resp.Body).
			Dur("duration", resp.Duration).
			Msg("Exchange response")

		h.recorder.RecordExchangeResponse(resp.StatusCode, resp.Duration.Seconds())
		h.recorder.RecordRelay(signal.Side, signal.Type, outcome)

		c.JSON(status, models.NewRelayResponse(resp.Body))
	}
}

// MethodNotAllowed returns the hint handler for GET /webhook
func (h *WebhookHandlers) MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.HintResponse{Hint: "use POST /webhook"})
	}
}

func (h *WebhookHandlers) relayStatus(exchangeStatus int) int {
	if exchangeStatus >= http.StatusInternalServerError && h.config.MaskUpstream5xx {
		return http.StatusOK
	}
	return exchangeStatus
}

func (h *WebhookHandlers) failUpstream(c *gin.Context, logger zerolog.Logger, signal *models.Signal, err error, elapsed time.Duration) {
	status, code := http.StatusBadGateway, models.ErrCodeUpstreamError
	if rest.IsTimeout(err) {
		status, code = http.StatusGatewayTimeout, models.ErrCodeUpstreamTimeout
	}

	var upstreamErr *rest.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode != 0 {
		h.recorder.RecordExchangeResponse(upstreamErr.StatusCode, elapsed.Seconds())
	}

	logger.Error().
		Err(err).
		Str("symbol", signal.Symbol).
		Str("side", signal.Side).
		Dur("duration", elapsed).
		Msg("Failed to reach exchange")

	h.recorder.RecordRelay(signal.Side, signal.Type, metrics.OutcomeUpstreamError)
	c.JSON(status, models.NewErrorResponse(code, err.Error(), c.GetString("request_id")))
}

// decodeSignal reads one JSON document and classifies failures into
// an HTTP status and error code
func decodeSignal(body io.Reader, signal *models.Signal) (int, string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, models.ErrCodePayloadTooLarge, err
		}
		return http.StatusBadRequest, models.ErrCodeInvalidJSON, err
	}

	if err := json.Unmarshal(data, signal); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return http.StatusBadRequest, models.ErrCodeInvalidJSON, err
		}
		// well-formed JSON with the wrong shape, e.g. "qty":"abc"
		return http.StatusBadRequest, models.ErrCodeMalformedRequest, err
	}

	return 0, "", nil
}

type nopRecorder struct{}

func (nopRecorder) RecordRelay(string, string, string)  {}
func (nopRecorder) RecordExchangeResponse(int, float64) {}
