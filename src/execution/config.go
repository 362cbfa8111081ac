package execution

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// A quote older than this must be re-fetched before a transaction is
	// built from it.
	QuoteTTL time.Duration `envconfig:"QUOTE_TTL" default:"10s"`

	QuoteRetryAttempts int           `envconfig:"QUOTE_RETRY_ATTEMPTS" default:"3"`
	QuoteBackoffBase   time.Duration `envconfig:"QUOTE_BACKOFF_BASE" default:"1s"`
	BuildRetryAttempts int           `envconfig:"BUILD_RETRY_ATTEMPTS" default:"2"`

	SignTimeout time.Duration `envconfig:"SIGN_TIMEOUT" default:"1s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
