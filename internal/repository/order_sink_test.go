package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	applogger "TradePulse/pkg/logger"
)

func sampleOrder() models.OrderRequest {
	return models.OrderRequest{
		Symbol:     "EURUSD",
		Timestamp:  time.Date(2026, 3, 2, 9, 0, 3, 0, time.UTC),
		Direction:  models.DirectionBuy,
		Quantity:   1,
		Price:      1.12,
		RiskAmount: 500,
		SignalID:   "a1b2c3d4e5f60708",
	}
}

func TestLogSinkAcceptsOrders(t *testing.T) {
	sink := NewLogSink(applogger.Nop())
	require.NoError(t, sink.Submit(context.Background(), sampleOrder()))
	require.NoError(t, sink.Close())
}

func TestOrderWirePayloadShape(t *testing.T) {
	// shape of the JSON the kafka sink hands to the producer
	raw, err := json.Marshal(sampleOrder())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	for _, key := range []string{"symbol", "timestamp", "direction", "quantity", "price", "risk_amount", "signal_id"} {
		assert.Contains(t, payload, key)
	}
	assert.Equal(t, "EURUSD", payload["symbol"])
	assert.Equal(t, "BUY", payload["direction"])
}

func TestForwarderBridgesBusToSink(t *testing.T) {
	b := bus.New(applogger.Nop())
	recorded := make([]models.OrderRequest, 0, 1)
	sink := &funcSink{
		submit: func(order models.OrderRequest) error {
			recorded = append(recorded, order)
			return nil
		},
	}
	f := NewForwarder(b, sink)

	b.Publish(context.Background(), sampleOrder())

	require.Len(t, recorded, 1)
	assert.Equal(t, sampleOrder(), recorded[0])
	require.NoError(t, f.Close())
	assert.True(t, sink.closed)
}

type funcSink struct {
	submit func(models.OrderRequest) error
	closed bool
}

func (s *funcSink) Submit(_ context.Context, order models.OrderRequest) error {
	return s.submit(order)
}

func (s *funcSink) Close() error {
	s.closed = true
	return nil
}
