package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceLen = 24

var errCiphertextTooShort = errors.New("ciphertext too short")

// EncryptString seals a secret with the configured wallet credentials key
// and returns base64(nonce || box).
func EncryptString(plaintext string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func DecryptString(encoded string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < nonceLen {
		return "", errCiphertextTooShort
	}

	var nonce [nonceLen]byte
	copy(nonce[:], raw[:nonceLen])

	plaintext, ok := secretbox.Open(nil, raw[nonceLen:], &nonce, key)
	if !ok {
		return "", errors.New("failed to open sealed wallet credentials")
	}
	return string(plaintext), nil
}

func loadKey() (*[32]byte, error) {
	config := GetConfig()
	if config.WalletCRKey == "" {
		return nil, errors.New("WALLET_CREDENTIALS_KEY not set")
	}
	raw, err := base64.StdEncoding.DecodeString(config.WalletCRKey)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet credentials key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("wallet credentials key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
