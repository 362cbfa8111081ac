package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Token mint addresses for the supported trading pair.
const (
	SolMint  = "So11111111111111111111111111111111111111112"
	UsdtMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// Token decimals used when converting between human amounts and base units.
const (
	SolDecimals  = 9
	UsdtDecimals = 6
)

// Quote is a priced, time-bounded offer from the swap aggregator. Raw keeps
// the untouched provider response because the swap build endpoint wants the
// quote echoed back verbatim.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	PriceImpactBps int
	RouteID        string
	FetchedAt      time.Time
	Raw            json.RawMessage
}

// Stale reports whether the quote is older than the given TTL and must be
// re-fetched before a transaction is built from it.
func (q *Quote) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(q.FetchedAt) > ttl
}

// ExpectedOutput converts OutAmount base units into a human-readable amount
// using the output mint's decimals.
func (q *Quote) ExpectedOutput() decimal.Decimal {
	return FromBaseUnits(q.OutAmount, q.OutputMint)
}

// MintDecimals returns the known decimals for a supported mint, defaulting
// to SOL's when the mint is unknown.
func MintDecimals(mint string) int32 {
	if mint == UsdtMint {
		return UsdtDecimals
	}
	return SolDecimals
}

// ToBaseUnits converts a human token amount into integer base units
// (lamports for SOL).
func ToBaseUnits(amount decimal.Decimal, mint string) uint64 {
	return uint64(amount.Shift(MintDecimals(mint)).IntPart())
}

// FromBaseUnits converts integer base units into a human token amount.
func FromBaseUnits(units uint64, mint string) decimal.Decimal {
	return decimal.NewFromUint64(units).Shift(-MintDecimals(mint))
}

// PairForAction resolves the input/output mints for a trade direction:
// BUY swaps USDT into SOL, SELL swaps SOL into USDT.
func PairForAction(action string) (inputMint, outputMint string) {
	if action == ActionBuy {
		return UsdtMint, SolMint
	}
	return SolMint, UsdtMint
}
