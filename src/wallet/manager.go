package wallet

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/security"
)

// Manager holds the trading wallet keypair and signs swap transactions
// locally. Signing failures are never retried upstream: retrying a signature
// request risks producing two distinct valid signed payloads for the same
// logical trade.
type Manager struct {
	key solana.PrivateKey
}

// NewManager loads the wallet key from the environment, preferring the
// encrypted form when present.
func NewManager() (*Manager, error) {
	config := GetConfig()

	encoded := config.PrivateKey
	if config.PrivateKeyEncrypted != "" {
		decrypted, err := security.DecryptString(config.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt wallet private key: %w", err)
		}
		encoded = decrypted
	}
	if encoded == "" {
		return nil, errors.New("no wallet private key configured")
	}

	return NewManagerFromKey(encoded)
}

// NewManagerFromKey builds a manager from a base58-encoded private key.
func NewManagerFromKey(encoded string) (*Manager, error) {
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}

	m := &Manager{key: key}
	logger.WithField("address", m.Address()).Info("[wallet] keypair loaded")
	return m, nil
}

// Address returns the wallet public address in base58.
func (m *Manager) Address() string {
	return m.key.PublicKey().String()
}

// Sign decodes the unsigned transaction bytes from the swap provider, signs
// them with the wallet key, and returns the wire-ready signed transaction.
func (m *Manager) Sign(unsignedTx []byte) ([]byte, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(unsignedTx))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(m.key.PublicKey()) {
			return &m.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}
	return signed, nil
}
