package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// State tracks the mutable risk counters for one trading pair. All access
// goes through Gate, which holds the single mutex guarding it: counters
// never decrease except via time-window rollover.
type State struct {
	TradesToday         int
	TradesThisHour      int
	LastTradeAt         time.Time
	CircuitBreakerUntil time.Time
	BreakerRefPrice     decimal.Decimal

	// Window anchors for rollover detection
	dayAnchor  time.Time
	hourAnchor time.Time
}

// NewState initializes risk state with the given reference price and anchors
// the counting windows at now.
func NewState(refPrice decimal.Decimal, now time.Time, loc *time.Location) *State {
	local := now.In(loc)
	return &State{
		BreakerRefPrice: refPrice,
		dayAnchor:       dayStart(local),
		hourAnchor:      hourStart(local),
	}
}

// BreakerActive reports whether the circuit breaker suspends live trading.
func (s *State) BreakerActive(now time.Time) bool {
	return now.Before(s.CircuitBreakerUntil)
}

// rollover resets the hourly and daily counters when now has crossed a
// wall-clock hour or calendar-day boundary in the configured location.
func (s *State) rollover(now time.Time, loc *time.Location) {
	local := now.In(loc)
	if day := dayStart(local); day.After(s.dayAnchor) {
		s.dayAnchor = day
		s.TradesToday = 0
	}
	if hour := hourStart(local); hour.After(s.hourAnchor) {
		s.hourAnchor = hour
		s.TradesThisHour = 0
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Snapshot is a copyable view of the risk state for the operational surface.
type Snapshot struct {
	TradesToday         int             `json:"trades_today"`
	TradesThisHour      int             `json:"trades_this_hour"`
	LastTradeAt         *time.Time      `json:"last_trade_at,omitempty"`
	CircuitBreakerUntil *time.Time      `json:"circuit_breaker_until,omitempty"`
	BreakerRefPrice     decimal.Decimal `json:"breaker_reference_price"`
}
