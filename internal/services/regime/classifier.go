// Package regime turns per-symbol tick streams into edge-triggered market
// regime events.
package regime

import (
	"context"
	"errors"
	"sync"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/services/stats"
	applogger "TradePulse/pkg/logger"
)

// Config holds the classification thresholds. Zero values fall back to the
// documented defaults.
type Config struct {
	BufferSize int     // rolling mid-price window, default 50
	MinSamples int     // minimum samples before classifying, default 3
	TrendR2    float64 // R² above which a market is trending, default 0.7
	ZThreshold float64 // |z| above which a market is mean-reverting, default 2.0
	ZWindow    int     // inner z-score window, default 20, capped at BufferSize
	// SlopeEpsilon is the explicit noise floor for trend slopes: a fit with
	// |slope| at or below it never classifies TRENDING, whatever its R².
	SlopeEpsilon float64 // default 1e-6
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 50
	}
	if c.MinSamples < 2 {
		c.MinSamples = 3
	}
	if c.TrendR2 == 0 {
		c.TrendR2 = 0.7
	}
	if c.ZThreshold == 0 {
		c.ZThreshold = 2.0
	}
	if c.ZWindow <= 0 {
		c.ZWindow = 20
	}
	if c.ZWindow > c.BufferSize {
		c.ZWindow = c.BufferSize
	}
	if c.SlopeEpsilon == 0 {
		c.SlopeEpsilon = 1e-6
	}
	return c
}

// Snapshot is the classifier's current view, served by the ops endpoint.
type Snapshot struct {
	Symbol    string            `json:"symbol"`
	Regime    models.RegimeKind `json:"regime"`
	RSquared  float64           `json:"r_squared"`
	ZScore    float64           `json:"z_score"`
	Slope     float64           `json:"slope"`
	TickCount int               `json:"tick_count"`
	Buffered  int               `json:"buffered"`
}

// Classifier maintains a rolling mid-price window for one symbol and
// publishes a Regime event whenever the classification changes.
type Classifier struct {
	b       *bus.Bus
	log     *applogger.Logger
	metrics repository.Metrics
	symbol  string
	cfg     Config

	mu        sync.Mutex
	window    *ring
	current   models.RegimeKind
	lastR2    float64
	lastZ     float64
	lastSlope float64
	tickCount int
}

// New creates a classifier for one symbol and subscribes it to tick events.
func New(b *bus.Bus, log *applogger.Logger, metrics repository.Metrics, symbol string, cfg Config) *Classifier {
	cfg = cfg.withDefaults()
	c := &Classifier{
		b:       b,
		log:     log,
		metrics: metrics,
		symbol:  symbol,
		cfg:     cfg,
		window:  newRing(cfg.BufferSize),
		// current stays empty (unknown) until the first classification, so
		// the first settled regime is always announced.
	}
	bus.On(b, c.onTick)
	return c
}

func (c *Classifier) onTick(ctx context.Context, tick models.Tick) error {
	if tick.Symbol != c.symbol {
		return nil
	}

	c.mu.Lock()
	c.window.push(tick.Mid())
	c.tickCount++
	if c.window.len() < c.cfg.MinSamples {
		c.mu.Unlock()
		return nil
	}

	prices := c.window.values()
	slope, r2, err := stats.SlopeRSquared(prices)
	if err != nil {
		c.mu.Unlock()
		// Hold the previous regime; this tick contributes data only.
		c.log.Debug("classification skipped",
			applogger.String("symbol", c.symbol),
			applogger.Error(err),
		)
		return nil
	}

	zWindow := c.cfg.ZWindow
	if zWindow > len(prices)-1 {
		zWindow = len(prices) - 1
	}
	z, err := stats.ZScore(prices, zWindow)
	if err != nil {
		if !errors.Is(err, stats.ErrDegenerateDistribution) {
			c.mu.Unlock()
			c.log.Debug("classification skipped",
				applogger.String("symbol", c.symbol),
				applogger.Error(err),
			)
			return nil
		}
		z = 0 // no meaningful deviation
	}

	c.lastR2, c.lastZ, c.lastSlope = r2, z, slope
	next := c.classify(r2, z, slope)
	changed := next != c.current
	c.current = next
	c.mu.Unlock()

	if !changed {
		return nil
	}

	c.log.Info("regime change",
		applogger.String("symbol", c.symbol),
		applogger.String("regime", string(next)),
		applogger.Float64("r_squared", r2),
		applogger.Float64("z_score", z),
		applogger.Float64("slope", slope),
	)
	if c.metrics != nil {
		c.metrics.RecordRegimeChange(c.symbol, string(next))
	}

	c.b.Publish(ctx, models.Regime{
		Symbol:    c.symbol,
		Timestamp: tick.Timestamp,
		Kind:      next,
		RSquared:  r2,
		ZScore:    z,
		Slope:     slope,
	})
	return nil
}

// classify applies the strict priority order: trend, then deviation, then
// ranging. The slope floor keeps a flat line with spuriously high R² from
// classifying TRENDING.
func (c *Classifier) classify(r2, z, slope float64) models.RegimeKind {
	if r2 > c.cfg.TrendR2 && abs(slope) > c.cfg.SlopeEpsilon {
		return models.RegimeTrending
	}
	if abs(z) > c.cfg.ZThreshold {
		return models.RegimeMeanReversion
	}
	return models.RegimeRanging
}

// Current returns the held classification and its last metrics.
func (c *Classifier) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Symbol:    c.symbol,
		Regime:    c.current,
		RSquared:  c.lastR2,
		ZScore:    c.lastZ,
		Slope:     c.lastSlope,
		TickCount: c.tickCount,
		Buffered:  c.window.len(),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ring is a fixed-capacity FIFO of float64 with O(1) push.
type ring struct {
	buf   []float64
	head  int
	count int
}

func newRing(capacity int) *ring {
	if capacity < 2 {
		capacity = 2
	}
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) len() int { return r.count }

// values returns the window oldest-first as a fresh slice.
func (r *ring) values() []float64 {
	out := make([]float64, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
