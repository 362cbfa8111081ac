package decision

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Decision collaborator endpoints. The source serves the next signal,
	// the trigger kicks off a fresh analysis round.
	SignalURL  string `envconfig:"DECISION_SIGNAL_URL" default:"http://localhost:8080/signal"`
	AnalyzeURL string `envconfig:"DECISION_ANALYZE_URL" default:""`

	RequestTimeout time.Duration `envconfig:"DECISION_REQUEST_TIMEOUT" default:"10s"`

	// Defaults filled into signals that omit the optional fields
	DefaultAmountSol   float64 `envconfig:"DEFAULT_TRADE_AMOUNT_SOL" default:"0.01"`
	DefaultSlippageBps int     `envconfig:"SLIPPAGE_BPS" default:"50"`
	DefaultDryRun      bool    `envconfig:"DRY_RUN_MODE" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
