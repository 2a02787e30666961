package regime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	applogger "TradePulse/pkg/logger"
)

type regimeRecorder struct {
	mu     sync.Mutex
	events []models.Regime
}

func (r *regimeRecorder) onRegime(_ context.Context, ev models.Regime) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *regimeRecorder) all() []models.Regime {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Regime, len(r.events))
	copy(out, r.events)
	return out
}

func publishPrices(b *bus.Bus, symbol string, prices []float64) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, p := range prices {
		spread := p * 2e-5
		b.Publish(context.Background(), models.Tick{
			Symbol:    symbol,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Bid:       p - spread/2,
			Ask:       p + spread/2,
			Volume:    1,
		})
	}
}

func TestTrendingEmittedOnceWhileTrendPersists(t *testing.T) {
	b := bus.New(applogger.Nop())
	c := New(b, applogger.Nop(), nil, "EURUSD", Config{BufferSize: 10, MinSamples: 3})
	rec := &regimeRecorder{}
	bus.On(b, rec.onRegime)

	publishPrices(b, "EURUSD", []float64{100, 101, 102, 103, 104, 105, 106, 107})

	events := rec.all()
	require.Len(t, events, 1, "steady trend must announce its regime exactly once")
	assert.Equal(t, models.RegimeTrending, events[0].Kind)
	assert.Equal(t, "EURUSD", events[0].Symbol)
	assert.Greater(t, events[0].Slope, 0.0)
	assert.Greater(t, events[0].RSquared, 0.9)

	snap := c.Current()
	assert.Equal(t, models.RegimeTrending, snap.Regime)
	assert.Equal(t, 8, snap.TickCount)
}

func TestNoClassificationBelowMinSamples(t *testing.T) {
	b := bus.New(applogger.Nop())
	c := New(b, applogger.Nop(), nil, "EURUSD", Config{BufferSize: 10, MinSamples: 3})
	rec := &regimeRecorder{}
	bus.On(b, rec.onRegime)

	publishPrices(b, "EURUSD", []float64{100, 101})

	assert.Empty(t, rec.all())
	assert.Empty(t, c.Current().Regime)
	assert.Equal(t, 2, c.Current().TickCount)
}

func TestFlatSeriesClassifiesRanging(t *testing.T) {
	b := bus.New(applogger.Nop())
	New(b, applogger.Nop(), nil, "EURUSD", Config{BufferSize: 10, MinSamples: 3})
	rec := &regimeRecorder{}
	bus.On(b, rec.onRegime)

	publishPrices(b, "EURUSD", []float64{100, 100, 100, 100, 100})

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.RegimeRanging, events[0].Kind)
	assert.Zero(t, events[0].Slope)
	assert.Zero(t, events[0].RSquared)
	assert.Zero(t, events[0].ZScore)
}

func TestSpikeAfterQuietMarketClassifiesMeanReversion(t *testing.T) {
	b := bus.New(applogger.Nop())
	New(b, applogger.Nop(), nil, "EURUSD", Config{BufferSize: 10, MinSamples: 3, ZWindow: 10})
	rec := &regimeRecorder{}
	bus.On(b, rec.onRegime)

	// Nine flat ticks settle into RANGING, then a spike pushes |z| past the
	// threshold without enough linear structure to trend.
	publishPrices(b, "EURUSD", []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 102})

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.RegimeRanging, events[0].Kind)
	assert.Equal(t, models.RegimeMeanReversion, events[1].Kind)
	assert.Greater(t, events[1].ZScore, 2.0)
}

func TestIgnoresOtherSymbols(t *testing.T) {
	b := bus.New(applogger.Nop())
	c := New(b, applogger.Nop(), nil, "EURUSD", Config{BufferSize: 10, MinSamples: 3})
	rec := &regimeRecorder{}
	bus.On(b, rec.onRegime)

	publishPrices(b, "USDJPY", []float64{150, 151, 152, 153})

	assert.Empty(t, rec.all())
	assert.Equal(t, 0, c.Current().TickCount)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 50, cfg.BufferSize)
	assert.Equal(t, 3, cfg.MinSamples)
	assert.Equal(t, 0.7, cfg.TrendR2)
	assert.Equal(t, 2.0, cfg.ZThreshold)
	assert.Equal(t, 20, cfg.ZWindow)
	assert.Equal(t, 1e-6, cfg.SlopeEpsilon)

	capped := Config{BufferSize: 5, ZWindow: 30}.withDefaults()
	assert.Equal(t, 5, capped.ZWindow)
}

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	r := newRing(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.push(v)
	}
	assert.Equal(t, 3, r.len())
	assert.Equal(t, []float64{3, 4, 5}, r.values())
}
