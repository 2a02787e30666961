package di

import (
	"fmt"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/feed"
	"TradePulse/internal/handler/api"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/services/regime"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBus creates the event bus shared by every pipeline stage.
func ProvideBus(log *applogger.Logger, m repository.Metrics) *bus.Bus {
	return bus.New(log, bus.WithMetrics(m))
}

// ProvideClassifiers creates one regime classifier per configured symbol.
// Each subscribes itself to tick events on construction.
func ProvideClassifiers(b *bus.Bus, log *applogger.Logger, m repository.Metrics, cfg *config.Config) []*regime.Classifier {
	classifiers := make([]*regime.Classifier, 0, len(cfg.Feed.Symbols))
	for _, symbol := range cfg.Feed.Symbols {
		classifiers = append(classifiers, regime.New(b, log, m, symbol, regime.Config{
			BufferSize:   cfg.Classifier.BufferSize,
			MinSamples:   cfg.Classifier.MinSamples,
			TrendR2:      cfg.Classifier.TrendR2,
			ZThreshold:   cfg.Classifier.ZThreshold,
			ZWindow:      cfg.Classifier.ZWindow,
			SlopeEpsilon: cfg.Classifier.SlopeEpsilon,
		}))
	}
	return classifiers
}

// ProvideValidator creates the risk validator subscribed to signal events.
func ProvideValidator(b *bus.Bus, log *applogger.Logger, m repository.Metrics, cfg *config.Config) *risk.Validator {
	return risk.New(b, log, m, risk.Config{
		Balance:         cfg.Risk.Balance,
		MaxRiskPerTrade: cfg.Risk.MaxRiskPerTrade,
		MaxDailyRisk:    cfg.Risk.MaxDailyRisk,
		ATR:             cfg.Risk.ATR,
		ContractSize:    cfg.Risk.ContractSize,
	})
}

// ProvideStrategy creates the regime-following strategy.
func ProvideStrategy(b *bus.Bus, log *applogger.Logger) *usecase.Strategy {
	return usecase.NewStrategy(b, log)
}

// ProvideOrderSink selects the execution boundary from config.
func ProvideOrderSink(cfg *config.Config, log *applogger.Logger) (repository.OrderSink, error) {
	switch cfg.Orders.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic), nil
	default:
		return internalrepo.NewLogSink(log), nil
	}
}

// ProvideForwarder bridges approved orders from the bus to the sink.
func ProvideForwarder(b *bus.Bus, sink repository.OrderSink) *internalrepo.Forwarder {
	return internalrepo.NewForwarder(b, sink)
}

// ProvideSimulator creates the synthetic market data feed.
func ProvideSimulator(b *bus.Bus, log *applogger.Logger, m repository.Metrics, cfg *config.Config) *feed.Simulator {
	return feed.NewSimulator(b, log, m, feed.Config{
		Symbols:      cfg.Feed.Symbols,
		BasePrice:    cfg.Feed.BasePrice,
		TickInterval: cfg.Feed.TickInterval,
		PhaseLength:  cfg.Feed.PhaseLength,
		Seed:         cfg.Feed.Seed,
	})
}

// ProvideReportHandler creates the ops report handler.
func ProvideReportHandler(log *applogger.Logger, validator *risk.Validator, classifiers []*regime.Classifier) *api.ReportHandler {
	return api.NewReportHandler(log, validator, classifiers)
}

// ProvideHTTPServer creates the ops HTTP server.
func ProvideHTTPServer(cfg *config.Config, handler *api.ReportHandler) *xhttp.Server {
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	simulator *feed.Simulator,
	strategy *usecase.Strategy,
	forwarder *internalrepo.Forwarder,
	httpServer *xhttp.Server,
	validator *risk.Validator,
	classifiers []*regime.Classifier,
) *server.App {
	return server.New(cfg, log, simulator, strategy, forwarder, httpServer, validator, classifiers)
}
