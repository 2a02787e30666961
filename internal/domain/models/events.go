package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// EventKind identifies an event variant on the bus. The set is closed:
// routing and exhaustiveness checks key off these constants, not runtime
// type inspection.
type EventKind uint8

const (
	KindTick EventKind = iota + 1
	KindRegime
	KindSignal
	KindOrderRequest
)

func (k EventKind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindRegime:
		return "regime"
	case KindSignal:
		return "signal"
	case KindOrderRequest:
		return "order_request"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is implemented by every value type that flows through the bus.
// Events are immutable: once published they are never mutated, and they are
// passed by value so no consumer can observe another consumer's copy.
type Event interface {
	EventKind() EventKind
}

// RegimeKind classifies recent price behaviour.
type RegimeKind string

const (
	RegimeTrending      RegimeKind = "TRENDING"
	RegimeMeanReversion RegimeKind = "MEAN_REVERSION"
	RegimeRanging       RegimeKind = "RANGING"
)

// Direction is the side of a signal or order.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Tick is a single market price update.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Volume    float64   `json:"volume"`
}

func (Tick) EventKind() EventKind { return KindTick }

// Mid returns the bid/ask midpoint.
func (t Tick) Mid() float64 { return (t.Bid + t.Ask) / 2 }

// Spread returns the bid/ask spread.
func (t Tick) Spread() float64 { return t.Ask - t.Bid }

// Validate checks the tick invariants: bid > 0, ask >= bid, volume >= 0.
func (t Tick) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("tick: symbol empty")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("tick %s: timestamp zero", t.Symbol)
	}
	if t.Bid <= 0 {
		return fmt.Errorf("tick %s: bid %v not positive", t.Symbol, t.Bid)
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("tick %s: ask %v below bid %v", t.Symbol, t.Ask, t.Bid)
	}
	if t.Volume < 0 {
		return fmt.Errorf("tick %s: negative volume %v", t.Symbol, t.Volume)
	}
	return nil
}

// Regime is an edge-triggered classification change for one symbol.
// Slope is carried alongside RSquared/ZScore so downstream strategies can
// derive trend direction without recomputing the fit.
type Regime struct {
	Symbol    string     `json:"symbol"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      RegimeKind `json:"kind"`
	RSquared  float64    `json:"r_squared"`
	ZScore    float64    `json:"z_score"`
	Slope     float64    `json:"slope"`
}

func (Regime) EventKind() EventKind { return KindRegime }

// Signal is a trade intention produced by a strategy.
type Signal struct {
	Symbol     string     `json:"symbol"`
	Timestamp  time.Time  `json:"timestamp"`
	Direction  Direction  `json:"direction"`
	Confidence float64    `json:"confidence"` // [0,1]
	Regime     RegimeKind `json:"regime"`
	Price      float64    `json:"price"`
}

func (Signal) EventKind() EventKind { return KindSignal }

// ID derives a stable identifier from the signal content, used to correlate
// the resulting order request in audit output.
func (s Signal) ID() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%d_%g_%g",
		s.Symbol, s.Direction, s.Timestamp.UnixNano(), s.Confidence, s.Price)))
	return hex.EncodeToString(sum[:])[:16]
}

// OrderRequest is a risk-approved order handed to the execution boundary.
// Quantity is positive only because every request passed the risk checks.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Direction  Direction `json:"direction"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	RiskAmount float64   `json:"risk_amount"`
	SignalID   string    `json:"signal_id"`
}

func (OrderRequest) EventKind() EventKind { return KindOrderRequest }
