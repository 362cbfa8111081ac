package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session buckets a moment into the liquidity regime it falls in. Crypto
// trades around the clock, but SOL depth still follows the major market
// hours, so position sizes scale per session instead of being blocked.
type Session string

const (
	SessionAsia    Session = "asia"
	SessionEurope  Session = "europe"
	SessionUS      Session = "us"
	SessionWeekend Session = "weekend"
)

// SessionOf classifies a UTC instant. Weekends win over the hour buckets.
func SessionOf(t time.Time) Session {
	utc := t.UTC()
	if wd := utc.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return SessionWeekend
	}
	switch h := utc.Hour(); {
	case h < 7:
		return SessionAsia
	case h < 14:
		return SessionEurope
	case h < 21:
		return SessionUS
	default:
		return SessionAsia
	}
}

// sessionMultiplier maps a session to its configured size multiplier. A
// non-positive multiplier means the session is unconfigured, not that trades
// shrink to nothing, so it falls back to 1.
func (c Config) sessionMultiplier(s Session) decimal.Decimal {
	var m float64
	switch s {
	case SessionAsia:
		m = c.AsiaSizeMultiplier
	case SessionEurope:
		m = c.EuropeSizeMultiplier
	case SessionUS:
		m = c.USSizeMultiplier
	case SessionWeekend:
		m = c.WeekendSizeMultiplier
	}
	if m <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(m)
}

// sessionSize applies the session multiplier to a suggested trade size.
// Disabled sizing passes the amount through untouched.
func (c Config) sessionSize(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.SessionSizingEnabled {
		return amount
	}
	return amount.Mul(c.sessionMultiplier(SessionOf(now)))
}
