package risk

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

var day1 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Balance:         100000,
		MaxRiskPerTrade: 500,
		MaxDailyRisk:    2000,
		ATR:             50,
		ContractSize:    10,
	}
}

type orderRecorder struct {
	mu     sync.Mutex
	orders []models.OrderRequest
}

func (r *orderRecorder) onOrder(_ context.Context, order models.OrderRequest) error {
	r.mu.Lock()
	r.orders = append(r.orders, order)
	r.mu.Unlock()
	return nil
}

func (r *orderRecorder) all() []models.OrderRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.OrderRequest, len(r.orders))
	copy(out, r.orders)
	return out
}

func signalAt(ts time.Time, confidence float64) models.Signal {
	return models.Signal{
		Symbol:     "EURUSD",
		Timestamp:  ts,
		Direction:  models.DirectionBuy,
		Confidence: confidence,
		Regime:     models.RegimeTrending,
		Price:      1.1,
	}
}

func TestApprovedOrderCarriesSizedQuantity(t *testing.T) {
	b := bus.New(applogger.Nop())
	New(b, applogger.Nop(), nil, testConfig())
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	sig := signalAt(day1, 1.0)
	b.Publish(context.Background(), sig)

	orders := rec.all()
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "EURUSD", order.Symbol)
	assert.Equal(t, models.DirectionBuy, order.Direction)
	assert.Equal(t, sig.ID(), order.SignalID)
	assert.Equal(t, 1.1, order.Price)
	assert.InDelta(t, 500.0, order.RiskAmount, 1e-9)
	// 500 of risk at ATR 50 and contract size 10 buys exactly one unit
	assert.InDelta(t, 1.0, order.Quantity, 1e-9)
}

func TestConfidenceScalesRiskAndQuantity(t *testing.T) {
	b := bus.New(applogger.Nop())
	New(b, applogger.Nop(), nil, testConfig())
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	b.Publish(context.Background(), signalAt(day1, 0.5))

	orders := rec.all()
	require.Len(t, orders, 1)
	assert.InDelta(t, 250.0, orders[0].RiskAmount, 1e-9)
	assert.InDelta(t, 0.5, orders[0].Quantity, 1e-9)
}

func TestNeutralSignalRejected(t *testing.T) {
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, testConfig())
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	sig := signalAt(day1, 1.0)
	sig.Direction = models.DirectionNeutral
	b.Publish(context.Background(), sig)

	assert.Empty(t, rec.all())
	assert.Equal(t, 1, v.Report().Rejections[RejectNeutral])
}

func TestPerTradeLimitRejectsOversizedRisk(t *testing.T) {
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, testConfig(),
		WithPolicy(func(models.Signal) float64 { return 600 }))
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	b.Publish(context.Background(), signalAt(day1, 1.0))

	assert.Empty(t, rec.all())
	report := v.Report()
	assert.Equal(t, 1, report.Rejections[RejectPerTrade])
	assert.Zero(t, report.DailyRiskUsed)
}

func TestDailyLimitBlocksCumulativeRisk(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRiskPerTrade = 1500
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, cfg,
		WithPolicy(func(models.Signal) float64 { return 1200 }))
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	b.Publish(context.Background(), signalAt(day1, 1.0))
	b.Publish(context.Background(), signalAt(day1.Add(time.Minute), 1.0))

	orders := rec.all()
	require.Len(t, orders, 1, "second signal would breach the daily limit")
	report := v.Report()
	assert.InDelta(t, 1200.0, report.DailyRiskUsed, 1e-9)
	assert.InDelta(t, 800.0, report.DailyRiskRemaining, 1e-9)
	assert.Equal(t, 1, report.Rejections[RejectDailyLimit])
	assert.Equal(t, StateOpen, report.State)
}

func TestDailyCounterResetsOnNewSessionDay(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRiskPerTrade = 1500
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, cfg,
		WithPolicy(func(models.Signal) float64 { return 1200 }))
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	b.Publish(context.Background(), signalAt(day1, 1.0))
	b.Publish(context.Background(), signalAt(day1.Add(time.Hour), 1.0))    // blocked
	b.Publish(context.Background(), signalAt(day1.Add(24*time.Hour), 1.0)) // next day, fresh budget

	orders := rec.all()
	require.Len(t, orders, 2)
	report := v.Report()
	assert.InDelta(t, 1200.0, report.DailyRiskUsed, 1e-9)
	assert.Equal(t, 2, report.TotalOrders)
}

func TestLimitReachedStateAtExactBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRiskPerTrade = 2000
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, cfg,
		WithPolicy(func(models.Signal) float64 { return 2000 }))
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	b.Publish(context.Background(), signalAt(day1, 1.0))

	require.Len(t, rec.all(), 1)
	report := v.Report()
	assert.Equal(t, StateLimitReached, report.State)
	assert.Zero(t, report.DailyRiskRemaining)
}

func TestConcurrentSignalsNeverOvercommitDailyBudget(t *testing.T) {
	b := bus.New(applogger.Nop())
	v := New(b, applogger.Nop(), nil, testConfig())
	rec := &orderRecorder{}
	bus.On(b, rec.onOrder)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Publish(context.Background(), signalAt(day1.Add(time.Duration(i)*time.Second), 1.0))
		}(i)
	}
	wg.Wait()

	// 2000 of budget admits exactly four 500-risk orders, whatever the
	// interleaving.
	assert.Len(t, rec.all(), 4)
	report := v.Report()
	assert.InDelta(t, 2000.0, report.DailyRiskUsed, 1e-9)
	assert.Equal(t, StateLimitReached, report.State)
	assert.Equal(t, 6, report.Rejections[RejectDailyLimit])
}
