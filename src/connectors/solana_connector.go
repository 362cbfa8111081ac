package connectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
)

// ErrConfirmationTimeout marks a submitted transaction whose confirmation
// was not observed in time. The transaction may still land: callers must
// surface this as UNKNOWN, never as a plain failure.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// Confirmation is the observed result of a submitted transaction.
type Confirmation struct {
	Confirmed   bool
	Slot        uint64
	BlockTime   *time.Time
	FeeLamports uint64
}

// SolanaClient wraps the chain RPC for transaction submission and
// confirmation lookups.
type SolanaClient struct {
	rpc    *rpc.Client
	commit rpc.CommitmentType
}

func NewSolanaClient(rpcURL, commitment string) *SolanaClient {
	if rpcURL == "" {
		rpcURL = "https://api.mainnet-beta.solana.com"
		logger.Warnf("No Solana RPC URL provided, using default: %s", rpcURL)
	}

	commit := rpc.CommitmentConfirmed
	switch commitment {
	case "processed":
		commit = rpc.CommitmentProcessed
	case "finalized":
		commit = rpc.CommitmentFinalized
	}

	return &SolanaClient{
		rpc:    rpc.New(rpcURL),
		commit: commit,
	}
}

// Submit sends a signed transaction to the chain and returns the
// provider-assigned signature handle.
func (c *SolanaClient) Submit(ctx context.Context, signedTx []byte) (string, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, signedTx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commit,
	})
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return "", classifyRPCError("solana submit", rpcErr.Code, rpcErr.Message)
		}
		return "", classifyTransportError("solana submit", err)
	}

	logger.WithField("signature", sig.String()).Info("transaction submitted")
	return sig.String(), nil
}

// SignatureStatus looks up a submitted signature once. The bool reports
// whether the transaction reached the configured commitment; a non-nil
// error means the transaction landed but failed on-chain.
func (c *SolanaClient) SignatureStatus(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, &model.ProviderError{Op: "solana status", Message: fmt.Sprintf("invalid signature %q: %v", signature, err)}
	}

	out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return false, classifyTransportError("solana status", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return true, &model.ProviderError{
			Op:      "solana status",
			Message: fmt.Sprintf("transaction failed on-chain: %v", status.Err),
		}
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	}
	return false, nil
}

// TransactionDetails fetches fee and block time for a confirmed signature.
// Only best-effort: submission outcome has already been decided by then.
func (c *SolanaClient) TransactionDetails(ctx context.Context, signature string) (*Confirmation, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, &model.ProviderError{Op: "solana transaction", Message: fmt.Sprintf("invalid signature %q: %v", signature, err)}
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commit,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, classifyTransportError("solana transaction", err)
	}

	conf := &Confirmation{Confirmed: true, Slot: out.Slot}
	if out.Meta != nil {
		conf.FeeLamports = out.Meta.Fee
	}
	if out.BlockTime != nil {
		t := out.BlockTime.Time()
		conf.BlockTime = &t
	}
	return conf, nil
}

// PollConfirmation polls signature status until the transaction confirms,
// fails on-chain, or ctx expires. Expiry maps to ErrConfirmationTimeout.
func (c *SolanaClient) PollConfirmation(ctx context.Context, signature string, interval time.Duration) (*Confirmation, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
			confirmed, err := c.SignatureStatus(ctx, signature)
			if err != nil {
				var provErr *model.ProviderError
				if errors.As(err, &provErr) && !provErr.Transient {
					return nil, err
				}
				logger.WithError(err).Debug("transient error polling signature status")
				continue
			}
			if !confirmed {
				continue
			}

			details, err := c.TransactionDetails(ctx, signature)
			if err != nil {
				logger.WithError(err).Warn("confirmed but failed to fetch transaction details")
				return &Confirmation{Confirmed: true}, nil
			}
			return details, nil
		}
	}
}
