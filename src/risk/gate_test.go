package risk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeexecutor/src/model"
)

func testConfig() Config {
	return Config{
		MaxTradesPerDay:       20,
		MaxTradesPerHour:      5,
		MinIntervalSec:        60,
		MaxTradeSizeSol:       0.1,
		MaxPriceChangePct:     20,
		BreakerCooldownSec:    3600,
		Timezone:              "UTC",
		AsiaSizeMultiplier:    0.75,
		EuropeSizeMultiplier:  1.0,
		USSizeMultiplier:      1.0,
		WeekendSizeMultiplier: 0.5,
	}
}

// newTestGate builds a gate anchored at a fixed instant with a controllable
// clock.
func newTestGate(cfg Config, refPrice decimal.Decimal, at time.Time) (*Gate, *time.Time) {
	current := at
	loc := cfg.Location()
	g := &Gate{
		cfg:   cfg,
		state: NewState(refPrice, at, loc),
		loc:   loc,
		now:   func() time.Time { return current },
	}
	return g, &current
}

func liveSignal(amount float64) *model.TradingSignal {
	return &model.TradingSignal{
		ID:              uuid.NewString(),
		Action:          model.ActionBuy,
		Confidence:      0.9,
		Rationale:       "breakout above the previous range high",
		SuggestedAmount: decimal.NewFromFloat(amount),
		SlippageBps:     50,
	}
}

func dryRunSignal(amount float64) *model.TradingSignal {
	s := liveSignal(amount)
	s.DryRun = true
	return s
}

func TestGateClampsOversizedTrades(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate, _ := newTestGate(testConfig(), decimal.NewFromInt(100), base)

	tests := []struct {
		name       string
		suggested  float64
		wantAmount string
	}{
		{name: "oversized trade is capped", suggested: 5.0, wantAmount: "0.1"},
		{name: "in-bounds trade passes through", suggested: 0.05, wantAmount: "0.05"},
		{name: "exactly at the cap", suggested: 0.1, wantAmount: "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := gate.Evaluate(liveSignal(tt.suggested), decimal.NewFromInt(100))
			if !verdict.Allowed {
				t.Fatalf("expected trade to be allowed, denied with %q", verdict.Reason)
			}
			if want := decimal.RequireFromString(tt.wantAmount); !verdict.Amount.Equal(want) {
				t.Fatalf("expected amount %s, got %s", want, verdict.Amount)
			}
		})
	}
}

func TestGateFrequencyLimits(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(100)

	t.Run("daily limit", func(t *testing.T) {
		gate, _ := newTestGate(testConfig(), price, base)
		gate.state.TradesToday = 20

		verdict := gate.Evaluate(liveSignal(0.05), price)
		if verdict.Allowed || verdict.Reason != DenyDailyLimitExceeded {
			t.Fatalf("expected daily limit denial, got %+v", verdict)
		}
	})

	t.Run("hourly limit", func(t *testing.T) {
		gate, _ := newTestGate(testConfig(), price, base)
		gate.state.TradesToday = 10
		gate.state.TradesThisHour = 5

		verdict := gate.Evaluate(liveSignal(0.05), price)
		if verdict.Allowed || verdict.Reason != DenyHourlyLimitExceeded {
			t.Fatalf("expected hourly limit denial, got %+v", verdict)
		}
	})

	t.Run("minimum interval", func(t *testing.T) {
		gate, _ := newTestGate(testConfig(), price, base)
		gate.state.LastTradeAt = base.Add(-30 * time.Second)

		verdict := gate.Evaluate(liveSignal(0.05), price)
		if verdict.Allowed || verdict.Reason != DenyMinIntervalNotElapsed {
			t.Fatalf("expected interval denial, got %+v", verdict)
		}

		gate.state.LastTradeAt = base.Add(-61 * time.Second)
		verdict = gate.Evaluate(liveSignal(0.05), price)
		if !verdict.Allowed {
			t.Fatalf("expected trade after interval to pass, denied with %q", verdict.Reason)
		}
	})
}

func TestGateCircuitBreakerOnPriceShock(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate, current := newTestGate(testConfig(), decimal.NewFromInt(100), base)

	// 25% drop trips the breaker and denies the triggering request.
	verdict := gate.Evaluate(liveSignal(0.05), decimal.NewFromInt(75))
	if verdict.Allowed || verdict.Reason != DenyCircuitBreakerTriggered {
		t.Fatalf("expected breaker trigger denial, got %+v", verdict)
	}
	if gate.state.CircuitBreakerUntil.IsZero() {
		t.Fatal("expected breaker window to be set")
	}
	if !gate.state.BreakerRefPrice.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected reference price to move to the shock price, got %s", gate.state.BreakerRefPrice)
	}

	// While the window is open every live trade is denied, even at a
	// stable price.
	*current = base.Add(30 * time.Minute)
	verdict = gate.Evaluate(liveSignal(0.05), decimal.NewFromInt(75))
	if verdict.Allowed || verdict.Reason != DenyCircuitBreakerActive {
		t.Fatalf("expected active breaker denial, got %+v", verdict)
	}

	// After the cooldown, trading resumes against the new reference.
	*current = base.Add(61 * time.Minute)
	verdict = gate.Evaluate(liveSignal(0.05), decimal.NewFromInt(76))
	if !verdict.Allowed {
		t.Fatalf("expected trade after cooldown to pass, denied with %q", verdict.Reason)
	}
}

func TestGatePriceShockEdgeCases(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("zero current price skips shock detection", func(t *testing.T) {
		gate, _ := newTestGate(testConfig(), decimal.NewFromInt(100), base)
		verdict := gate.Evaluate(liveSignal(0.05), decimal.Zero)
		if !verdict.Allowed {
			t.Fatalf("expected trade with no reference price to pass, denied with %q", verdict.Reason)
		}
	})

	t.Run("zero reference adopts the current price", func(t *testing.T) {
		gate, _ := newTestGate(testConfig(), decimal.Zero, base)
		verdict := gate.Evaluate(liveSignal(0.05), decimal.NewFromInt(150))
		if !verdict.Allowed {
			t.Fatalf("expected first priced trade to pass, denied with %q", verdict.Reason)
		}
		if !gate.state.BreakerRefPrice.Equal(decimal.NewFromInt(150)) {
			t.Fatalf("expected reference price 150, got %s", gate.state.BreakerRefPrice)
		}
	})
}

func TestGateDryRunBypassesDenials(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate, _ := newTestGate(testConfig(), decimal.NewFromInt(100), base)
	gate.state.TradesToday = 20
	gate.state.TradesThisHour = 5
	gate.state.CircuitBreakerUntil = base.Add(time.Hour)

	verdict := gate.Evaluate(dryRunSignal(5.0), decimal.NewFromInt(100))
	if !verdict.Allowed {
		t.Fatalf("expected dry run to bypass denials, denied with %q", verdict.Reason)
	}
	if want := decimal.RequireFromString("0.1"); !verdict.Amount.Equal(want) {
		t.Fatalf("dry run must still be position-sized, got %s", verdict.Amount)
	}
}

func TestGateDryRunStillTripsBreaker(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate, _ := newTestGate(testConfig(), decimal.NewFromInt(100), base)

	verdict := gate.Evaluate(dryRunSignal(0.05), decimal.NewFromInt(75))
	if !verdict.Allowed {
		t.Fatalf("expected dry run to pass during a shock, denied with %q", verdict.Reason)
	}
	if gate.state.CircuitBreakerUntil.IsZero() {
		t.Fatal("expected the dry run to still trip the breaker for live trades")
	}

	// The next live trade hits the window the dry run opened.
	live := gate.Evaluate(liveSignal(0.05), decimal.NewFromInt(75))
	if live.Allowed || live.Reason != DenyCircuitBreakerActive {
		t.Fatalf("expected live trade to hit the breaker, got %+v", live)
	}
}

func TestGateCommit(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate, _ := newTestGate(testConfig(), decimal.NewFromInt(100), base)

	gate.Commit(model.ExecutionStatusSuccess)
	gate.Commit(model.ExecutionStatusFailed)
	gate.Commit(model.ExecutionStatusUnknown)
	gate.Commit(model.ExecutionStatusDryRun)

	snap := gate.Snapshot()
	if snap.TradesToday != 3 {
		t.Fatalf("expected 3 committed trades today, got %d", snap.TradesToday)
	}
	if snap.TradesThisHour != 3 {
		t.Fatalf("expected 3 committed trades this hour, got %d", snap.TradesThisHour)
	}
	if snap.LastTradeAt == nil {
		t.Fatal("expected last trade time to be recorded")
	}
}

func TestGateWindowRollover(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	gate, current := newTestGate(testConfig(), decimal.NewFromInt(100), base)
	gate.state.TradesToday = 7
	gate.state.TradesThisHour = 5

	// Crossing the wall-clock hour resets only the hourly counter.
	*current = time.Date(2025, 6, 1, 13, 0, 1, 0, time.UTC)
	snap := gate.Snapshot()
	if snap.TradesThisHour != 0 {
		t.Fatalf("expected hourly counter reset, got %d", snap.TradesThisHour)
	}
	if snap.TradesToday != 7 {
		t.Fatalf("expected daily counter preserved, got %d", snap.TradesToday)
	}

	// Crossing midnight resets both.
	*current = time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)
	snap = gate.Snapshot()
	if snap.TradesToday != 0 || snap.TradesThisHour != 0 {
		t.Fatalf("expected both counters reset at midnight, got %+v", snap)
	}
}
