package database

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Driver selects the ledger backend: "sqlite" (default) or "postgres".
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN          string `envconfig:"DATABASE_URL" default:"trade_executor.db"`
	GormLogLevel int    `envconfig:"GORM_LOG_LEVEL" default:"2"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
