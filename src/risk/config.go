package risk

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	MaxTradesPerDay  int     `envconfig:"MAX_TRADES_PER_DAY" default:"20"`
	MaxTradesPerHour int     `envconfig:"MAX_TRADES_PER_HOUR" default:"5"`
	MinIntervalSec   int     `envconfig:"MIN_TRADE_INTERVAL_SEC" default:"60"`
	MaxTradeSizeSol  float64 `envconfig:"MAX_TRADE_SIZE_SOL" default:"0.1"`

	// Circuit breaker
	MaxPriceChangePct  float64 `envconfig:"CIRCUIT_BREAKER_PRICE_CHANGE_PCT" default:"20"`
	BreakerCooldownSec int     `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SEC" default:"3600"`

	// Timezone for hourly/daily window rollover
	Timezone string `envconfig:"RISK_TIMEZONE" default:"UTC"`

	// Session-based position sizing. The clamp applies after the
	// multiplier, so the hard cap always wins.
	SessionSizingEnabled  bool    `envconfig:"SESSION_SIZING_ENABLED" default:"false"`
	AsiaSizeMultiplier    float64 `envconfig:"ASIA_SIZE_MULTIPLIER" default:"0.75"`
	EuropeSizeMultiplier  float64 `envconfig:"EUROPE_SIZE_MULTIPLIER" default:"1.0"`
	USSizeMultiplier      float64 `envconfig:"US_SIZE_MULTIPLIER" default:"1.0"`
	WeekendSizeMultiplier float64 `envconfig:"WEEKEND_SIZE_MULTIPLIER" default:"0.5"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// MaxTradeSize returns the position cap as a decimal.
func (c Config) MaxTradeSize() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxTradeSizeSol)
}

// BreakerCooldown returns the circuit-breaker cooldown as a duration.
func (c Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSec) * time.Second
}

// MinInterval returns the minimum gap between trades as a duration.
func (c Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalSec) * time.Second
}

// Location resolves the configured rollover timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
