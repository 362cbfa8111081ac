package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Intake loop: how often the decision source is polled for a new
	// signal.
	PollInterval time.Duration `envconfig:"SIGNAL_POLL_INTERVAL" default:"60s"`

	// Auxiliary cadence loop: when enabled, triggers the decision
	// collaborator's analysis on a fixed interval.
	CadenceEnabled  bool          `envconfig:"CADENCE_ENABLED" default:"false"`
	CadenceInterval time.Duration `envconfig:"CADENCE_INTERVAL" default:"60s"`

	// Delay before a loop retries its own cycle after a body failure.
	LoopRetryDelay time.Duration `envconfig:"LOOP_RETRY_DELAY" default:"5s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
