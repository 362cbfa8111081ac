package wallet

import (
	"encoding/base64"
	"testing"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeexecutor/src/security"
)

func TestNewManagerFromKey(t *testing.T) {
	account := solana.NewWallet()

	m, err := NewManagerFromKey(account.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey().String(), m.Address())
}

func TestNewManagerFromKeyRejectsGarbage(t *testing.T) {
	_, err := NewManagerFromKey("not-a-base58-keypair")
	require.Error(t, err)
}

func TestNewManagerPrefersEncryptedKey(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	t.Setenv("WALLET_CREDENTIALS_KEY", base64.StdEncoding.EncodeToString(key))

	account := solana.NewWallet()
	sealed, err := security.EncryptString(account.PrivateKey.String())
	require.NoError(t, err)

	t.Setenv("WALLET_PRIVATE_KEY", "")
	t.Setenv("WALLET_PRIVATE_KEY_ENCRYPTED", sealed)

	m, err := NewManager()
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey().String(), m.Address())
}

func TestNewManagerWithoutAnyKey(t *testing.T) {
	t.Setenv("WALLET_PRIVATE_KEY", "")
	t.Setenv("WALLET_PRIVATE_KEY_ENCRYPTED", "")

	_, err := NewManager()
	require.Error(t, err)
}

func TestSignRejectsMalformedTransaction(t *testing.T) {
	account := solana.NewWallet()
	m, err := NewManagerFromKey(account.PrivateKey.String())
	require.NoError(t, err)

	_, err = m.Sign([]byte("definitely not a serialized transaction"))
	require.Error(t, err)
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	account := solana.NewWallet()
	m, err := NewManagerFromKey(account.PrivateKey.String())
	require.NoError(t, err)

	recent := solana.MustHashFromBase58("GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W")
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(
				solana.MemoProgramID,
				solana.AccountMetaSlice{solana.Meta(account.PublicKey()).SIGNER().WRITE()},
				[]byte("swap"),
			),
		},
		recent,
		solana.TransactionPayer(account.PublicKey()),
	)
	require.NoError(t, err)

	unsigned, err := tx.MarshalBinary()
	require.NoError(t, err)

	signed, err := m.Sign(unsigned)
	require.NoError(t, err)

	decoded, err := solana.TransactionFromDecoder(bin.NewBinDecoder(signed))
	require.NoError(t, err)
	require.NoError(t, decoded.VerifySignatures())
}
