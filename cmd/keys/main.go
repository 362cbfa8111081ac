package keys

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/security"
	"tradeexecutor/src/wallet"
)

func printUsage() {
	fmt.Println("Available commands:")
	fmt.Println("  help          Show this help message")
	fmt.Println("  shutdown      Exit the CLI")
	fmt.Println("  encrypt <key> Seal a base58 wallet private key for WALLET_PRIVATE_KEY_ENCRYPTED")
	fmt.Println("  address <key> Show the public address of a base58 private key")
	fmt.Println()
}

// Run is an interactive CLI for preparing wallet credentials: it seals a
// private key with the configured credentials key so only the ciphertext
// lands in the environment.
func Run() error {
	reader := bufio.NewScanner(os.Stdin)
	reader.Buffer(make([]byte, 0, 1024), 1024*1024)

	for {
		fmt.Print("cmd> ")

		if !reader.Scan() {
			return reader.Err()
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, " ")
		cmd := parts[0]

		switch cmd {

		case "shutdown":
			fmt.Println("Exiting CLI...")
			return nil

		case "help":
			printUsage()

		case "encrypt":
			if len(parts) < 2 {
				printUsage()
				continue
			}

			// Reject malformed key material before sealing it.
			if _, err := wallet.NewManagerFromKey(parts[1]); err != nil {
				logger.WithError(err).Error("not a valid base58 private key")
				continue
			}

			sealed, err := security.EncryptString(parts[1])
			if err != nil {
				logger.WithError(err).Error("failed to encrypt private key")
				continue
			}
			fmt.Println("WALLET_PRIVATE_KEY_ENCRYPTED=" + sealed)

		case "address":
			if len(parts) < 2 {
				printUsage()
				continue
			}

			manager, err := wallet.NewManagerFromKey(parts[1])
			if err != nil {
				logger.WithError(err).Error("not a valid base58 private key")
				continue
			}
			fmt.Println(manager.Address())

		default:
			fmt.Println("Unknown command:", cmd)
			printUsage()
		}
	}
}
