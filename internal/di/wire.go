//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,
		ProvideBus,

		// Pipeline stages (each subscribes itself on construction)
		ProvideClassifiers,
		ProvideStrategy,
		ProvideValidator,

		// Execution boundary
		ProvideOrderSink,
		ProvideForwarder,

		// Feed and ops surface
		ProvideSimulator,
		ProvideReportHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
