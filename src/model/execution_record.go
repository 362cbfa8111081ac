package model

import (
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// ExecutionStatus constants represent the terminal (and one transient)
// lifecycle states of a trade attempt. UNKNOWN is terminal but actionable:
// the transaction was submitted and confirmation timed out, so the outcome
// must be reconciled by an operator rather than assumed.
const (
	ExecutionStatusPending = "pending"
	ExecutionStatusDryRun  = "dry_run"
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailed  = "failed"
	ExecutionStatusUnknown = "unknown"
)

// txSignatureLen is the length of a base58-encoded 64-byte Solana
// transaction signature.
const txSignatureLen = 88

// ExecutionRecord is the append-only ledger row written once per trade
// attempt. A record is created when a signal passes the risk gate and is
// never mutated after reaching a terminal status, except to append
// reconciliation data to UNKNOWN rows.
type ExecutionRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ReceivedAt time.Time `json:"received_at"`

	// Snapshot of the signal that triggered this attempt
	SignalID    string          `gorm:"index;size:36" json:"signal_id"`
	Action      string          `gorm:"size:10" json:"action"`
	Confidence  float64         `json:"confidence"`
	Rationale   string          `json:"rationale"`
	InputMint   string          `gorm:"size:64" json:"input_mint"`
	OutputMint  string          `gorm:"size:64" json:"output_mint"`
	InputAmount decimal.Decimal `gorm:"type:numeric" json:"input_amount"`
	SlippageBps int             `json:"slippage_bps"`

	// Quote details, null until a quote was fetched
	ExpectedOutput *decimal.Decimal `gorm:"type:numeric" json:"expected_output,omitempty"`
	PriceImpactBps *int             `json:"price_impact_bps,omitempty"`
	RouteID        *string          `gorm:"size:128" json:"route_id,omitempty"`

	// Outcome
	Status         string           `gorm:"size:20;not null;default:pending" json:"status"`
	TxSignature    *string          `gorm:"index;size:88" json:"tx_signature,omitempty"`
	ErrorKind      *string          `gorm:"size:40" json:"error_kind,omitempty"`
	ErrorMessage   *string          `json:"error_message,omitempty"`
	ActualOutput   *decimal.Decimal `gorm:"type:numeric" json:"actual_output,omitempty"`
	GasFeeLamports *uint64          `json:"gas_fee_lamports,omitempty"`
	DurationMs     int64            `json:"duration_ms"`

	// Reconciliation data, appended to UNKNOWN rows only
	ReconciledAt   *time.Time `json:"reconciled_at,omitempty"`
	ReconcileNote  *string    `json:"reconcile_note,omitempty"`
	FinalStatus    *string    `gorm:"size:20" json:"final_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName pins the exact ledger table name.
func (ExecutionRecord) TableName() string {
	return "execution_records"
}

// Terminal reports whether the record reached a terminal status.
func (r *ExecutionRecord) Terminal() bool {
	switch r.Status {
	case ExecutionStatusDryRun, ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusUnknown:
		return true
	}
	return false
}

// Validate enforces the record invariants: a SUCCESS row always carries a
// transaction signature, a DRY_RUN row never does.
func (r *ExecutionRecord) Validate() error {
	switch r.Status {
	case ExecutionStatusSuccess, ExecutionStatusUnknown:
		if r.TxSignature == nil {
			return fmt.Errorf("status %s requires a transaction signature", r.Status)
		}
		if err := ValidateTxSignature(*r.TxSignature); err != nil {
			return err
		}
	case ExecutionStatusDryRun:
		if r.TxSignature != nil {
			return fmt.Errorf("dry-run record must not carry a transaction signature")
		}
	}
	return nil
}

// ValidateTxSignature checks the well-known length and base58 charset of a
// Solana transaction signature.
func ValidateTxSignature(sig string) error {
	if len(sig) != txSignatureLen {
		return fmt.Errorf("transaction signature must be %d characters, got %d", txSignatureLen, len(sig))
	}
	raw, err := base58.Decode(sig)
	if err != nil {
		return fmt.Errorf("transaction signature is not valid base58: %w", err)
	}
	if len(raw) != 64 {
		return fmt.Errorf("transaction signature must decode to 64 bytes, got %d", len(raw))
	}
	return nil
}
