package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// OrderSink receives risk-approved order requests at the execution boundary.
type OrderSink interface {
	Submit(ctx context.Context, order models.OrderRequest) error
	Close() error
}

type Metrics interface {
	RecordEventPublished(kind string)
	RecordHandlerError(kind string)
	RecordRegimeChange(symbol, regime string)
	RecordRejection(reason string)
	RecordOrderApproved(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordDailyRiskUsed(used float64)
	RecordLatency(op string, seconds float64)
}
