package usecase

import (
	"context"
	"sync"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	applogger "TradePulse/pkg/logger"
)

// Strategy maps regime changes to trading signals: follow the trend while
// the market trends, fade the move while it mean-reverts, stay out while it
// ranges. It tracks the last mid-price per symbol so every signal carries a
// real price.
type Strategy struct {
	b   *bus.Bus
	log *applogger.Logger

	mu      sync.Mutex
	lastMid map[string]float64
}

// NewStrategy creates the strategy and subscribes it to tick and regime
// events.
func NewStrategy(b *bus.Bus, log *applogger.Logger) *Strategy {
	s := &Strategy{
		b:       b,
		log:     log,
		lastMid: make(map[string]float64),
	}
	bus.On(b, s.onTick)
	bus.On(b, s.onRegime)
	return s
}

func (s *Strategy) onTick(_ context.Context, tick models.Tick) error {
	s.mu.Lock()
	s.lastMid[tick.Symbol] = tick.Mid()
	s.mu.Unlock()
	return nil
}

func (s *Strategy) onRegime(ctx context.Context, ev models.Regime) error {
	s.mu.Lock()
	price, seen := s.lastMid[ev.Symbol]
	s.mu.Unlock()
	if !seen || price <= 0 {
		s.log.Debug("no price yet, skipping signal", applogger.String("symbol", ev.Symbol))
		return nil
	}

	var direction models.Direction
	var confidence float64
	switch ev.Kind {
	case models.RegimeTrending:
		direction = models.DirectionBuy
		if ev.Slope < 0 {
			direction = models.DirectionSell
		}
		confidence = min(ev.RSquared, 1)
	case models.RegimeMeanReversion:
		direction = models.DirectionBuy
		if ev.ZScore > 0 {
			direction = models.DirectionSell
		}
		confidence = min(abs(ev.ZScore)/3, 1)
	default:
		// Ranging markets carry no edge.
		return nil
	}

	sig := models.Signal{
		Symbol:     ev.Symbol,
		Timestamp:  ev.Timestamp,
		Direction:  direction,
		Confidence: confidence,
		Regime:     ev.Kind,
		Price:      price,
	}
	s.log.Info("signal",
		applogger.String("symbol", sig.Symbol),
		applogger.String("direction", string(direction)),
		applogger.Float64("confidence", confidence),
		applogger.String("regime", string(ev.Kind)),
	)
	s.b.Publish(ctx, sig)
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
