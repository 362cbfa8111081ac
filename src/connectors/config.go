package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	JupiterBaseURL string `envconfig:"JUPITER_BASE_URL" default:"https://quote-api.jup.ag"`
	SolanaRPCURL   string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	// Websocket endpoint for signature subscriptions. Empty falls back to
	// status polling over the RPC endpoint.
	SolanaWSURL string `envconfig:"SOLANA_WS_URL" default:""`
	Commitment  string `envconfig:"SOLANA_COMMITMENT" default:"confirmed"`

	// Per-step call timeouts
	QuoteTimeout   time.Duration `envconfig:"QUOTE_TIMEOUT" default:"2s"`
	BuildTimeout   time.Duration `envconfig:"BUILD_TIMEOUT" default:"3s"`
	SubmitTimeout  time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"5s"`
	ConfirmTimeout time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"30s"`

	// Confirmation polling cadence when no websocket endpoint is set
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"1s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
