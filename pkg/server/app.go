package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradePulse/internal/feed"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/services/regime"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
)

// App encapsulates the application lifecycle: the demo feed, the pipeline
// stages wired to the bus, the ops HTTP server, and a final session summary
// on shutdown.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	simulator   *feed.Simulator
	strategy    *usecase.Strategy
	forwarder   *internalrepo.Forwarder
	httpServer  *xhttp.Server
	validator   *risk.Validator
	classifiers []*regime.Classifier
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	simulator *feed.Simulator,
	strategy *usecase.Strategy,
	forwarder *internalrepo.Forwarder,
	httpServer *xhttp.Server,
	validator *risk.Validator,
	classifiers []*regime.Classifier,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		simulator:   simulator,
		strategy:    strategy,
		forwarder:   forwarder,
		httpServer:  httpServer,
		validator:   validator,
		classifiers: classifiers,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.simulator.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	a.simulator.Wait()

	a.summary()

	if err := a.forwarder.Close(); err != nil {
		a.log.Error("order sink close failed", applogger.Error(err))
	}

	return a.httpServer.Stop(context.Background())
}

// summary logs the final per-symbol regimes and the risk report.
func (a *App) summary() {
	for _, cl := range a.classifiers {
		snap := cl.Current()
		a.log.Info("session regime",
			applogger.String("symbol", snap.Symbol),
			applogger.String("regime", string(snap.Regime)),
			applogger.Float64("r_squared", snap.RSquared),
			applogger.Float64("z_score", snap.ZScore),
			applogger.Int("ticks", snap.TickCount),
		)
	}

	report := a.validator.Report()
	a.log.Info("session risk report",
		applogger.Float64("balance", report.Balance),
		applogger.Float64("daily_risk_used", report.DailyRiskUsed),
		applogger.Float64("daily_risk_remaining", report.DailyRiskRemaining),
		applogger.String("state", string(report.State)),
		applogger.Int("open_orders", report.OpenOrders),
		applogger.Int("total_orders", report.TotalOrders),
		applogger.Any("rejections", report.Rejections),
	)
}
