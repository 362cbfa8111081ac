package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
)

// Confirmer waits for a submitted transaction to reach the configured
// commitment, preferring a websocket signature subscription and falling
// back to status polling when no websocket endpoint is configured or the
// subscription fails.
type Confirmer struct {
	wsURL        string
	commitment   string
	rpc          *SolanaClient
	pollInterval time.Duration
}

func NewConfirmer(cfg Config, rpcClient *SolanaClient) *Confirmer {
	commitment := cfg.Commitment
	if commitment == "" {
		commitment = "confirmed"
	}
	return &Confirmer{
		wsURL:        cfg.SolanaWSURL,
		commitment:   commitment,
		rpc:          rpcClient,
		pollInterval: cfg.ConfirmPollInterval,
	}
}

// Await blocks until the signature confirms, fails on-chain, or ctx
// expires. Expiry maps to ErrConfirmationTimeout.
func (c *Confirmer) Await(ctx context.Context, signature string) (*Confirmation, error) {
	if c.wsURL == "" {
		return c.rpc.PollConfirmation(ctx, signature, c.pollInterval)
	}

	conf, err := c.awaitOverWebsocket(ctx, signature)
	if err != nil && !errors.Is(err, ErrConfirmationTimeout) && !isOnChainFailure(err) {
		logger.WithError(err).Warn("websocket confirmation failed, falling back to polling")
		return c.rpc.PollConfirmation(ctx, signature, c.pollInterval)
	}
	return conf, err
}

type wsSubscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Err json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *Confirmer) awaitOverWebsocket(ctx context.Context, signature string) (*Confirmation, error) {
	// A transaction confirmed before the subscription is established never
	// notifies, so check the status once up front.
	if confirmed, err := c.rpc.SignatureStatus(ctx, signature); err == nil && confirmed {
		return c.details(ctx, signature)
	} else if isOnChainFailure(err) {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", c.wsURL, err)
	}
	defer conn.Close()

	sub := wsSubscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": c.commitment},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ErrConfirmationTimeout
		default:
		}

		var note wsNotification
		if err := conn.ReadJSON(&note); err != nil {
			if ctx.Err() != nil {
				return nil, ErrConfirmationTimeout
			}
			return nil, fmt.Errorf("subscription read failed: %w", err)
		}
		if note.Method != "signatureNotification" {
			continue
		}

		if txErr := note.Params.Result.Value.Err; len(txErr) > 0 && string(txErr) != "null" {
			return nil, &model.ProviderError{
				Op:      "solana confirm",
				Message: fmt.Sprintf("transaction failed on-chain: %s", string(txErr)),
			}
		}
		return c.details(ctx, signature)
	}
}

func (c *Confirmer) details(ctx context.Context, signature string) (*Confirmation, error) {
	details, err := c.rpc.TransactionDetails(ctx, signature)
	if err != nil {
		logger.WithError(err).Warn("confirmed but failed to fetch transaction details")
		return &Confirmation{Confirmed: true}, nil
	}
	return details, nil
}

func isOnChainFailure(err error) bool {
	var provErr *model.ProviderError
	return errors.As(err, &provErr) && !provErr.Transient
}
