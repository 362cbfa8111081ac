package risk

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/shopspring/decimal"

	"tradeexecutor/src/model"
)

// Denial reasons. Every denial carries exactly one of these; the first
// failing check wins.
const (
	DenyCircuitBreakerActive    = "circuit_breaker_active"
	DenyCircuitBreakerTriggered = "circuit_breaker_triggered"
	DenyDailyLimitExceeded      = "daily_limit_exceeded"
	DenyHourlyLimitExceeded     = "hourly_limit_exceeded"
	DenyMinIntervalNotElapsed   = "min_interval_not_elapsed"
)

// DeniedError carries the specific denial reason to the operational
// surface. Denials never produce a ledger record beyond an audit log entry.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "trade denied by risk gate: " + e.Reason
}

// Decision is the outcome of evaluating a proposed trade against the risk
// state. Amount carries the position-sized (possibly clamped) trade size.
type Decision struct {
	Allowed bool
	Reason  string
	Amount  decimal.Decimal
}

// Gate owns the shared RiskState for one trading pair. Evaluate and Commit
// are the only paths that read or mutate the state, and both hold the same
// mutex, so check-then-act for a given pair is indivisible as long as the
// caller serializes executions between the two calls (the scheduler runs at
// most one execution per pair).
type Gate struct {
	mu    sync.Mutex
	cfg   Config
	state *State
	loc   *time.Location
	now   func() time.Time
}

// NewGate creates a gate with a fresh state anchored at the current time.
func NewGate(cfg Config, refPrice decimal.Decimal) *Gate {
	loc := cfg.Location()
	now := time.Now()
	return &Gate{
		cfg:   cfg,
		state: NewState(refPrice, now, loc),
		loc:   loc,
		now:   time.Now,
	}
}

// Evaluate runs the risk checks in order against the proposed trade.
// Dry-run signals always pass the denial checks (they never touch the
// chain) but are still position-sized. Price-shock detection mutates the
// breaker state even when the triggering request is a dry-run.
func (g *Gate) Evaluate(signal *model.TradingSignal, nowPrice decimal.Decimal) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.state.rollover(now, g.loc)

	amount := g.clamp(g.cfg.sessionSize(signal.SuggestedAmount, now))

	// 1. Circuit breaker window
	if g.state.BreakerActive(now) && !signal.DryRun {
		return g.deny(signal, DenyCircuitBreakerActive, amount)
	}

	// 2. Price-shock detection. Trips the breaker and denies the
	// triggering request itself; the reference price moves to the
	// shock price so post-cooldown requests compare against it.
	if g.priceShock(nowPrice) {
		g.state.CircuitBreakerUntil = now.Add(g.cfg.BreakerCooldown())
		g.state.BreakerRefPrice = nowPrice
		logger.WithFields(map[string]interface{}{
			"price":          nowPrice,
			"breaker_until":  g.state.CircuitBreakerUntil,
			"max_change_pct": g.cfg.MaxPriceChangePct,
		}).Warn("circuit breaker triggered by price shock")
		if !signal.DryRun {
			return g.deny(signal, DenyCircuitBreakerTriggered, amount)
		}
	}

	// 3. Frequency limits
	if !signal.DryRun {
		if g.state.TradesToday >= g.cfg.MaxTradesPerDay {
			return g.deny(signal, DenyDailyLimitExceeded, amount)
		}
		if g.state.TradesThisHour >= g.cfg.MaxTradesPerHour {
			return g.deny(signal, DenyHourlyLimitExceeded, amount)
		}
		if !g.state.LastTradeAt.IsZero() && now.Sub(g.state.LastTradeAt) < g.cfg.MinInterval() {
			return g.deny(signal, DenyMinIntervalNotElapsed, amount)
		}
	}

	// 4. Position sizing: cap, never reject for size alone.
	return Decision{Allowed: true, Amount: amount}
}

// Commit records a terminal non-dry-run outcome: counters increment
// atomically and windows roll over on wall-clock boundaries. Dry-run
// outcomes never touch the counters.
func (g *Gate) Commit(status string) {
	if status == model.ExecutionStatusDryRun {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.state.rollover(now, g.loc)
	g.state.TradesToday++
	g.state.TradesThisHour++
	g.state.LastTradeAt = now
}

// Snapshot returns a copy of the current risk state for the operational
// surface.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.rollover(g.now(), g.loc)

	snap := Snapshot{
		TradesToday:     g.state.TradesToday,
		TradesThisHour:  g.state.TradesThisHour,
		BreakerRefPrice: g.state.BreakerRefPrice,
	}
	if !g.state.LastTradeAt.IsZero() {
		t := g.state.LastTradeAt
		snap.LastTradeAt = &t
	}
	if !g.state.CircuitBreakerUntil.IsZero() {
		t := g.state.CircuitBreakerUntil
		snap.CircuitBreakerUntil = &t
	}
	return snap
}

func (g *Gate) deny(signal *model.TradingSignal, reason string, amount decimal.Decimal) Decision {
	logger.WithFields(map[string]interface{}{
		"signal_id": signal.ID,
		"action":    signal.Action,
		"amount":    amount,
		"reason":    reason,
	}).Warn("trade denied by risk gate")
	return Decision{Allowed: false, Reason: reason, Amount: amount}
}

// priceShock reports whether the price moved beyond the configured
// percentage against the breaker reference. A zero reference price adopts
// the current price instead of dividing by it.
func (g *Gate) priceShock(nowPrice decimal.Decimal) bool {
	if nowPrice.IsZero() {
		return false
	}
	if g.state.BreakerRefPrice.IsZero() {
		g.state.BreakerRefPrice = nowPrice
		return false
	}
	changePct := nowPrice.Sub(g.state.BreakerRefPrice).
		Div(g.state.BreakerRefPrice).
		Mul(decimal.NewFromInt(100)).
		Abs()
	return changePct.GreaterThanOrEqual(decimal.NewFromFloat(g.cfg.MaxPriceChangePct))
}

func (g *Gate) clamp(amount decimal.Decimal) decimal.Decimal {
	if max := g.cfg.MaxTradeSize(); amount.GreaterThan(max) {
		return max
	}
	return amount
}
