// Package feed provides the synthetic market data generator used by the demo
// entry point. Real market connectivity lives outside this process; the
// simulator exercises the pipeline with alternating trending and
// mean-reverting price behaviour.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// Config controls the simulated streams.
type Config struct {
	Symbols      []string
	BasePrice    float64
	TickInterval time.Duration
	// Ticks per symbol before switching between trending and mean-reverting
	// phases.
	PhaseLength int
	Seed        int64
}

// Simulator publishes synthetic ticks for each configured symbol until its
// context is cancelled.
type Simulator struct {
	b       *bus.Bus
	log     *applogger.Logger
	metrics repository.Metrics
	cfg     Config
	wg      sync.WaitGroup
}

func NewSimulator(b *bus.Bus, log *applogger.Logger, metrics repository.Metrics, cfg Config) *Simulator {
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = 100.0
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.PhaseLength <= 0 {
		cfg.PhaseLength = 100
	}
	return &Simulator{b: b, log: log, metrics: metrics, cfg: cfg}
}

// Start launches one generator goroutine per symbol.
func (s *Simulator) Start(ctx context.Context) {
	s.log.Info("feed starting", applogger.Strings("symbols", s.cfg.Symbols))
	for i, symbol := range s.cfg.Symbols {
		s.wg.Add(1)
		go s.stream(ctx, symbol, s.cfg.Seed+int64(i))
	}
}

// Wait blocks until all generators stopped.
func (s *Simulator) Wait() { s.wg.Wait() }

func (s *Simulator) stream(ctx context.Context, symbol string, seed int64) {
	defer s.wg.Done()

	rng := rand.New(rand.NewSource(seed))
	price := s.cfg.BasePrice
	trending := true
	phaseTicks := 0

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("feed stopped", applogger.String("symbol", symbol))
			return
		case <-ticker.C:
		}

		phaseTicks++
		if phaseTicks > s.cfg.PhaseLength {
			trending = !trending
			phaseTicks = 0
		}

		if trending {
			// Biased random walk with a small drift.
			price += s.cfg.BasePrice*1e-5 + rng.NormFloat64()*s.cfg.BasePrice*5e-5
		} else {
			// Pull back toward the base price.
			price += -(price-s.cfg.BasePrice)*0.1 + rng.NormFloat64()*s.cfg.BasePrice*3e-5
		}
		if floor := s.cfg.BasePrice * 0.95; price < floor {
			price = floor
		}

		spread := s.cfg.BasePrice * 2e-5
		tick := models.Tick{
			Symbol:    symbol,
			Timestamp: time.Now().UTC(),
			Bid:       price - spread/2,
			Ask:       price + spread/2,
			Volume:    0.1 + rng.Float64()*9.9,
		}
		if err := tick.Validate(); err != nil {
			s.log.Warn("invalid synthetic tick dropped", applogger.Error(err))
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordLastPrice(symbol, tick.Mid())
		}
		s.b.Publish(ctx, tick)
	}
}
