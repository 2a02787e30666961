package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsPublished *prometheus.CounterVec
	handlerErrors   *prometheus.CounterVec
	regimeChanges   *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	ordersApproved  *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	dailyRiskUsed   prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_events_published_total",
				Help: "Total number of events published on the bus",
			},
			[]string{"kind"},
		),
		handlerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_handler_errors_total",
				Help: "Total number of event handler failures",
			},
			[]string{"kind"},
		),
		regimeChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_regime_changes_total",
				Help: "Total number of regime transitions",
			},
			[]string{"symbol", "regime"},
		),
		rejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signal_rejections_total",
				Help: "Total number of signals rejected by risk validation",
			},
			[]string{"reason"},
		),
		ordersApproved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_orders_approved_total",
				Help: "Total number of risk-approved order requests",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last recorded mid-price for a symbol",
			},
			[]string{"symbol"},
		),
		dailyRiskUsed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_daily_risk_used",
				Help: "Cumulative daily risk committed by approved orders",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventPublished counts a bus publish per event kind.
func (r *Recorder) RecordEventPublished(kind string) {
	r.eventsPublished.WithLabelValues(kind).Inc()
}

// RecordHandlerError counts a recovered handler failure.
func (r *Recorder) RecordHandlerError(kind string) {
	r.handlerErrors.WithLabelValues(kind).Inc()
}

// RecordRegimeChange counts an edge-triggered regime transition.
func (r *Recorder) RecordRegimeChange(symbol, regime string) {
	r.regimeChanges.WithLabelValues(symbol, regime).Inc()
}

// RecordRejection counts a risk rejection by reason.
func (r *Recorder) RecordRejection(reason string) {
	r.rejections.WithLabelValues(reason).Inc()
}

// RecordOrderApproved counts an approved order request.
func (r *Recorder) RecordOrderApproved(symbol string) {
	r.ordersApproved.WithLabelValues(symbol).Inc()
}

// RecordLastPrice records the last mid-price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordDailyRiskUsed tracks the cumulative daily risk gauge.
func (r *Recorder) RecordDailyRiskUsed(used float64) {
	r.dailyRiskUsed.Set(used)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
