package pricefeed

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Symbol string `envconfig:"PRICEFEED_SYMBOL" default:"SOL"`
	Quote  string `envconfig:"PRICEFEED_QUOTE" default:"USDT"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
