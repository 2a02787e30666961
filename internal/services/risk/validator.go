// Package risk gates trading signals behind per-trade and cumulative daily
// risk limits. One validator instance serves all symbols; the check-then-
// commit sequence is serialized so two concurrent signals can never both pass
// the daily limit against a stale cumulative value.
package risk

import (
	"context"
	"sync"
	"time"

	"TradePulse/internal/bus"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/services/stats"
	applogger "TradePulse/pkg/logger"
)

// RejectReason classifies why a signal produced no order. Rejections are
// normal validation outcomes, not errors.
type RejectReason string

const (
	RejectNeutral    RejectReason = "neutral_direction"
	RejectPerTrade   RejectReason = "per_trade_limit"
	RejectDailyLimit RejectReason = "daily_limit"
	RejectInternal   RejectReason = "internal_error"
)

// State is the validator's per-day admission state.
type State string

const (
	StateOpen         State = "OPEN"
	StateLimitReached State = "LIMIT_REACHED"
)

// Policy estimates the risk exposure of a signal in account currency. It
// must be deterministic. The default scales the per-trade cap by the
// signal's confidence.
type Policy func(sig models.Signal) float64

// Config holds account parameters and limits.
type Config struct {
	Balance         float64 // account balance, > 0
	MaxRiskPerTrade float64 // absolute currency cap per trade
	MaxDailyRisk    float64 // absolute currency cap per UTC day
	ATR             float64 // volatility input for position sizing
	ContractSize    float64 // pip value per lot
}

// Report is the queryable risk snapshot served by the ops endpoint.
type Report struct {
	Balance            float64              `json:"balance"`
	MaxRiskPerTrade    float64              `json:"max_risk_per_trade"`
	MaxDailyRisk       float64              `json:"max_daily_risk"`
	DailyRiskUsed      float64              `json:"daily_risk_used"`
	DailyRiskRemaining float64              `json:"daily_risk_remaining"`
	State              State                `json:"state"`
	OpenOrders         int                  `json:"open_orders"`
	TotalOrders        int                  `json:"total_orders"`
	Rejections         map[RejectReason]int `json:"rejections"`
}

// Validator consumes signals and publishes risk-approved order requests.
type Validator struct {
	b       *bus.Bus
	log     *applogger.Logger
	metrics repository.Metrics
	cfg     Config
	policy  Policy

	mu          sync.Mutex
	day         time.Time // UTC midnight of the current session day
	dailyUsed   float64
	open        map[string]models.OrderRequest
	totalOrders int
	rejections  map[RejectReason]int
}

// Option configures a Validator.
type Option func(*Validator)

// WithPolicy replaces the default confidence-scaled risk estimate.
func WithPolicy(p Policy) Option {
	return func(v *Validator) {
		if p != nil {
			v.policy = p
		}
	}
}

// New creates a validator and subscribes it to signal events.
func New(b *bus.Bus, log *applogger.Logger, metrics repository.Metrics, cfg Config, opts ...Option) *Validator {
	v := &Validator{
		b:          b,
		log:        log,
		metrics:    metrics,
		cfg:        cfg,
		open:       make(map[string]models.OrderRequest),
		rejections: make(map[RejectReason]int),
	}
	v.policy = func(sig models.Signal) float64 {
		return cfg.MaxRiskPerTrade * sig.Confidence
	}
	for _, opt := range opts {
		opt(v)
	}
	bus.On(b, v.onSignal)
	return v
}

func (v *Validator) onSignal(ctx context.Context, sig models.Signal) error {
	if sig.Direction == models.DirectionNeutral {
		v.reject(sig, RejectNeutral, 0)
		return nil
	}

	riskAmount := v.policy(sig)

	v.mu.Lock()
	v.rollover(sig.Timestamp)

	if riskAmount > v.cfg.MaxRiskPerTrade {
		v.mu.Unlock()
		v.reject(sig, RejectPerTrade, riskAmount)
		return nil
	}
	if v.dailyUsed+riskAmount > v.cfg.MaxDailyRisk {
		v.mu.Unlock()
		v.reject(sig, RejectDailyLimit, riskAmount)
		return nil
	}

	quantity, err := stats.PositionSize(v.cfg.Balance, riskAmount/v.cfg.Balance, v.cfg.ATR, v.cfg.ContractSize)
	if err != nil {
		v.mu.Unlock()
		v.reject(sig, RejectInternal, riskAmount)
		v.log.Error("position sizing failed",
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err),
		)
		return nil
	}

	order := models.OrderRequest{
		Symbol:     sig.Symbol,
		Timestamp:  sig.Timestamp,
		Direction:  sig.Direction,
		Quantity:   quantity,
		Price:      sig.Price,
		RiskAmount: riskAmount,
		SignalID:   sig.ID(),
	}
	v.dailyUsed += riskAmount
	v.open[order.SignalID] = order
	v.totalOrders++
	used := v.dailyUsed
	v.mu.Unlock()

	v.log.Info("order approved",
		applogger.String("symbol", order.Symbol),
		applogger.String("direction", string(order.Direction)),
		applogger.Float64("quantity", order.Quantity),
		applogger.Float64("price", order.Price),
		applogger.Float64("risk_amount", order.RiskAmount),
		applogger.String("signal_id", order.SignalID),
	)
	if v.metrics != nil {
		v.metrics.RecordOrderApproved(order.Symbol)
		v.metrics.RecordDailyRiskUsed(used)
	}

	v.b.Publish(ctx, order)
	return nil
}

// rollover resets the cumulative counter when the signal's UTC date moved
// past the tracked session day. Driven by event time, not wall clock, so
// replayed sessions behave identically. Caller holds v.mu.
func (v *Validator) rollover(ts time.Time) {
	day := ts.UTC().Truncate(24 * time.Hour)
	if v.day.IsZero() {
		v.day = day
		return
	}
	if day.After(v.day) {
		v.log.Info("daily risk counter reset",
			applogger.String("day", day.Format("2006-01-02")),
			applogger.Float64("previous_used", v.dailyUsed),
		)
		v.day = day
		v.dailyUsed = 0
		if v.metrics != nil {
			v.metrics.RecordDailyRiskUsed(0)
		}
	}
}

func (v *Validator) reject(sig models.Signal, reason RejectReason, riskAmount float64) {
	v.mu.Lock()
	v.rejections[reason]++
	v.mu.Unlock()

	v.log.Warn("signal rejected",
		applogger.String("symbol", sig.Symbol),
		applogger.String("direction", string(sig.Direction)),
		applogger.String("reason", string(reason)),
		applogger.Float64("risk_amount", riskAmount),
	)
	if v.metrics != nil {
		v.metrics.RecordRejection(string(reason))
	}
}

// Report returns the current risk snapshot.
func (v *Validator) Report() Report {
	v.mu.Lock()
	defer v.mu.Unlock()

	remaining := v.cfg.MaxDailyRisk - v.dailyUsed
	if remaining < 0 {
		remaining = 0
	}
	state := StateOpen
	if v.dailyUsed >= v.cfg.MaxDailyRisk {
		state = StateLimitReached
	}
	rejections := make(map[RejectReason]int, len(v.rejections))
	for k, n := range v.rejections {
		rejections[k] = n
	}
	return Report{
		Balance:            v.cfg.Balance,
		MaxRiskPerTrade:    v.cfg.MaxRiskPerTrade,
		MaxDailyRisk:       v.cfg.MaxDailyRisk,
		DailyRiskUsed:      v.dailyUsed,
		DailyRiskRemaining: remaining,
		State:              state,
		OpenOrders:         len(v.open),
		TotalOrders:        v.totalOrders,
		Rejections:         rejections,
	}
}
