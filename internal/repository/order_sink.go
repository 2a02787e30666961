package repository

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// LogSink records approved orders in the log. It is the default execution
// boundary when no broker-facing transport is configured.
type LogSink struct {
	log *applogger.Logger
}

func NewLogSink(log *applogger.Logger) repository.OrderSink {
	return &LogSink{log: log}
}

func (s *LogSink) Submit(_ context.Context, order models.OrderRequest) error {
	s.log.Info("order forwarded",
		applogger.String("symbol", order.Symbol),
		applogger.String("direction", string(order.Direction)),
		applogger.Float64("quantity", order.Quantity),
		applogger.Float64("price", order.Price),
		applogger.Float64("risk_amount", order.RiskAmount),
		applogger.String("signal_id", order.SignalID),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// KafkaSink forwards approved orders to a Kafka topic for an external
// execution service, keyed by symbol.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSink(producer *pkgkafka.Producer, topic string) repository.OrderSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Submit(ctx context.Context, order models.OrderRequest) error {
	if err := s.producer.Publish(ctx, s.topic, []byte(order.Symbol), order); err != nil {
		return fmt.Errorf("publish order %s: %w", order.SignalID, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
