package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSignal(t *testing.T, body string) Signal {
	t.Helper()
	var s Signal
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	s.Normalize()
	return s
}

func TestSignalDecode(t *testing.T) {
	t.Run("decodes market signal", func(t *testing.T) {
		s := decodeSignal(t, `{"symbol":"BTC-USDT","side":"BUY","type":"MARKET","qty":0.01,"note":"tv"}`)

		assert.Equal(t, "BTC-USDT", s.Symbol)
		assert.Equal(t, SideBuy, s.Side)
		assert.Equal(t, OrderTypeMarket, s.Type)
		require.NotNil(t, s.Qty)
		assert.Equal(t, "0.01", s.Qty.String())
		assert.Nil(t, s.Price)
		assert.Equal(t, "tv", s.Note)
	})

	t.Run("keeps integer prices integer", func(t *testing.T) {
		s := decodeSignal(t, `{"symbol":"BTC-USDT","side":"SELL","type":"LIMIT","qty":0.02,"price":65000}`)

		require.NotNil(t, s.Price)
		assert.Equal(t, "65000", s.Price.String())
		assert.Equal(t, "0.02", s.Qty.String())
	})

	t.Run("accepts quoted numbers", func(t *testing.T) {
		s := decodeSignal(t, `{"symbol":"ETH-USDT","side":"BUY","type":"MARKET","qty":"1.5"}`)
		assert.Equal(t, "1.5", s.Qty.String())
	})

	t.Run("normalizes side and type", func(t *testing.T) {
		s := decodeSignal(t, `{"symbol":" BTC-USDT ","side":"buy","type":"limit","qty":1,"price":1}`)

		assert.Equal(t, "BTC-USDT", s.Symbol)
		assert.Equal(t, SideBuy, s.Side)
		assert.Equal(t, OrderTypeLimit, s.Type)
	})

	t.Run("null price is absent", func(t *testing.T) {
		s := decodeSignal(t, `{"symbol":"BTC-USDT","side":"BUY","type":"MARKET","qty":1,"price":null}`)
		assert.Nil(t, s.Price)
		assert.False(t, s.HasPrice())
	})
}

func TestSignalValidate(t *testing.T) {
	qty := decimal.RequireFromString("0.01")
	price := decimal.RequireFromString("65000")
	zero := decimal.Zero
	negative := decimal.RequireFromString("-1")

	tests := []struct {
		name    string
		signal  Signal
		field   string
		wantErr bool
	}{
		{
			name:   "valid market order",
			signal: Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeMarket, Qty: &qty},
		},
		{
			name:   "valid limit order",
			signal: Signal{Symbol: "BTC-USDT", Side: SideSell, Type: OrderTypeLimit, Qty: &qty, Price: &price},
		},
		{
			name:   "market order may carry a price",
			signal: Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeMarket, Qty: &qty, Price: &price},
		},
		{
			name:    "missing symbol",
			signal:  Signal{Side: SideBuy, Type: OrderTypeMarket, Qty: &qty},
			field:   "symbol",
			wantErr: true,
		},
		{
			name:    "missing side",
			signal:  Signal{Symbol: "BTC-USDT", Type: OrderTypeMarket, Qty: &qty},
			field:   "side",
			wantErr: true,
		},
		{
			name:    "unknown side",
			signal:  Signal{Symbol: "BTC-USDT", Side: "HOLD", Type: OrderTypeMarket, Qty: &qty},
			field:   "side",
			wantErr: true,
		},
		{
			name:    "missing type",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Qty: &qty},
			field:   "type",
			wantErr: true,
		},
		{
			name:    "unknown type",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: "STOP", Qty: &qty},
			field:   "type",
			wantErr: true,
		},
		{
			name:    "missing qty",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeMarket},
			field:   "qty",
			wantErr: true,
		},
		{
			name:    "zero qty",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeMarket, Qty: &zero},
			field:   "qty",
			wantErr: true,
		},
		{
			name:    "limit without price",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeLimit, Qty: &qty},
			field:   "price",
			wantErr: true,
		},
		{
			name:    "limit with zero price",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeLimit, Qty: &qty, Price: &zero},
			field:   "price",
			wantErr: true,
		},
		{
			name:    "negative price",
			signal:  Signal{Symbol: "BTC-USDT", Side: SideBuy, Type: OrderTypeMarket, Qty: &qty, Price: &negative},
			field:   "price",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.signal.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRequest))

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
