package repository

import (
	"context"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// Forwarder bridges the bus to the execution boundary: every approved
// order request is handed to the configured sink. Sink failures surface on
// the bus error channel like any other handler failure.
type Forwarder struct {
	sink repository.OrderSink
}

func NewForwarder(b *bus.Bus, sink repository.OrderSink) *Forwarder {
	f := &Forwarder{sink: sink}
	bus.On(b, func(ctx context.Context, order models.OrderRequest) error {
		return f.sink.Submit(ctx, order)
	})
	return f
}

func (f *Forwarder) Close() error {
	return f.sink.Close()
}
