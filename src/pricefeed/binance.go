// Package pricefeed supplies the circuit-breaker reference price from the
// Binance spot ticker.
package pricefeed

import (
	"net/http"
	"sync"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// Feed fetches the last traded price for the configured pair. A short cache
// keeps risk evaluation from hammering the ticker endpoint when signals
// arrive in bursts.
type Feed struct {
	Config   *Config
	exchange goex.API

	mu        sync.Mutex
	lastPrice decimal.Decimal
	fetchedAt time.Time
	cacheTTL  time.Duration
}

func NewFeed() *Feed {
	return &Feed{
		Config:   GetConfig(),
		exchange: newBinanceInstance(),
		cacheTTL: 5 * time.Second,
	}
}

func newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

// Last returns the most recent pair price. A stale cache entry is served
// when the ticker call fails so that risk evaluation degrades instead of
// blocking.
func (f *Feed) Last() (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastPrice.IsZero() && time.Since(f.fetchedAt) < f.cacheTTL {
		return f.lastPrice, nil
	}

	pair := goex.NewCurrencyPair(
		goex.Currency{Symbol: f.Config.Symbol},
		goex.Currency{Symbol: f.Config.Quote},
	)
	ticker, err := f.exchange.GetTicker(pair)
	if err != nil {
		if !f.lastPrice.IsZero() {
			logger.WithError(err).Warn("[pricefeed] ticker fetch failed, serving cached price")
			return f.lastPrice, nil
		}
		return decimal.Zero, err
	}

	f.lastPrice = decimal.NewFromFloat(ticker.Last)
	f.fetchedAt = time.Now()
	return f.lastPrice, nil
}
