package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trading actions the decision collaborator may emit. HOLD never reaches the
// risk gate or the execution state machine.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

const (
	minRationaleLen = 10
	maxSlippageBps  = 10000
)

// TradingSignal is an externally produced trading decision. It is immutable
// once accepted: Validate is the only gate between the wire payload and the
// rest of the system.
type TradingSignal struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`

	Action          string          `json:"action"`
	Confidence      float64         `json:"confidence"`
	Rationale       string          `json:"rationale"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
	SlippageBps     int             `json:"slippage_bps"`
	DryRun          bool            `json:"dry_run"`
}

// signalPayload is the inbound JSON contract from the decision collaborator.
// Optional fields are pointers so that absent and zero stay distinguishable.
type signalPayload struct {
	Action          string   `json:"action"`
	Confidence      float64  `json:"confidence"`
	Rationale       string   `json:"rationale"`
	SuggestedAmount *float64 `json:"suggested_amount,omitempty"`
	SlippageBps     *int     `json:"slippage_bps,omitempty"`
	DryRun          *bool    `json:"dry_run,omitempty"`
}

// SignalDefaults fill the optional fields the collaborator left unset.
type SignalDefaults struct {
	Amount      decimal.Decimal
	SlippageBps int
	DryRun      bool
}

// ParseTradingSignal decodes and validates an inbound signal payload,
// assigning a fresh id and receive timestamp.
func ParseTradingSignal(raw []byte, defaults SignalDefaults) (*TradingSignal, error) {
	var payload signalPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, NewValidationError(fmt.Sprintf("malformed signal payload: %v", err))
	}

	signal := &TradingSignal{
		ID:              uuid.NewString(),
		ReceivedAt:      time.Now().UTC(),
		Action:          strings.ToUpper(strings.TrimSpace(payload.Action)),
		Confidence:      payload.Confidence,
		Rationale:       strings.TrimSpace(payload.Rationale),
		SuggestedAmount: defaults.Amount,
		SlippageBps:     defaults.SlippageBps,
		DryRun:          defaults.DryRun,
	}

	if payload.SuggestedAmount != nil {
		signal.SuggestedAmount = decimal.NewFromFloat(*payload.SuggestedAmount)
	}
	if payload.SlippageBps != nil {
		signal.SlippageBps = *payload.SlippageBps
	}
	if payload.DryRun != nil {
		signal.DryRun = *payload.DryRun
	}

	if err := signal.Validate(); err != nil {
		return nil, err
	}
	return signal, nil
}

// Validate enforces the inbound signal contract. It returns a
// *ValidationError so that callers can reject before any ledger interaction.
func (s *TradingSignal) Validate() error {
	switch s.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return NewValidationError(fmt.Sprintf("invalid action %q, must be BUY, SELL or HOLD", s.Action))
	}

	if s.Confidence < 0 || s.Confidence > 1 {
		return NewValidationError(fmt.Sprintf("confidence %.3f out of range [0,1]", s.Confidence))
	}

	if len(s.Rationale) < minRationaleLen {
		return NewValidationError(fmt.Sprintf("rationale must be at least %d characters", minRationaleLen))
	}

	if s.Action != ActionHold && !s.SuggestedAmount.IsPositive() {
		return NewValidationError(fmt.Sprintf("suggested amount %s must be positive", s.SuggestedAmount))
	}

	if s.SlippageBps < 0 || s.SlippageBps > maxSlippageBps {
		return NewValidationError(fmt.Sprintf("slippage %d bps out of range [0,%d]", s.SlippageBps, maxSlippageBps))
	}

	return nil
}

// IsActionable reports whether the signal should reach the risk gate at all.
func (s *TradingSignal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
