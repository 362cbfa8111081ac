package wallet

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Base58-encoded ed25519 private key. Plaintext form; ignored when the
	// encrypted form is set.
	PrivateKey string `envconfig:"WALLET_PRIVATE_KEY" default:""`
	// Private key sealed with security.EncryptString. Preferred at rest.
	PrivateKeyEncrypted string `envconfig:"WALLET_PRIVATE_KEY_ENCRYPTED" default:""`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
