package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/go-resty/resty/v2"

	"tradeexecutor/src/model"
)

// jupiterFatalCodes maps Jupiter errorCode values that are never worth
// retrying to human-readable messages.
var jupiterFatalCodes = map[string]string{
	"COULD_NOT_FIND_ANY_ROUTE":      "no swap route exists for this pair",
	"TOKEN_NOT_TRADABLE":            "token is not tradable",
	"INVALID_TOKEN_MINT":            "invalid token mint address",
	"NOT_SUPPORTED":                 "pair not supported by the aggregator",
	"CIRCULAR_ARBITRAGE_IS_DISABLED": "input and output mints are identical",
	"MARKET_NOT_FOUND":              "market not found for this pair",
}

// rpcFatalCodes maps Solana JSON-RPC error codes that indicate the
// transaction itself is bad rather than the connection.
var rpcFatalCodes = map[int]string{
	-32002: "transaction simulation failed",
	-32003: "transaction signature verification failure",
	-32602: "invalid params",
}

// GetJupiterErrorMsg returns a human-readable message for a Jupiter error
// code, or a generic message including the code when unknown.
func GetJupiterErrorMsg(code string) string {
	if msg, ok := jupiterFatalCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("unrecognized aggregator error %s", code)
}

// classifyTransportError wraps a transport-level resty error. Timeouts and
// connection failures are transient.
func classifyTransportError(op string, err error) error {
	transient := true
	var netErr net.Error
	if errors.As(err, &netErr) {
		transient = true
	} else if errors.Is(err, context.Canceled) {
		transient = false
	}
	return &model.ProviderError{
		Op:        op,
		Message:   err.Error(),
		Transient: transient,
		Cause:     err,
	}
}

// classifyJupiterError turns a non-200 Jupiter response into a provider
// error. 5xx and throttling are transient; documented error codes and other
// 4xx responses are fatal.
func classifyJupiterError(op string, resp *resty.Response) error {
	status := resp.StatusCode()

	var body jupiterErrorBody
	_ = json.Unmarshal(resp.Body(), &body)

	msg := body.Error
	if body.ErrorCode != "" {
		msg = GetJupiterErrorMsg(body.ErrorCode)
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", status)
	}

	transient := status >= 500 || status == 429 || status == 408
	if _, fatal := jupiterFatalCodes[body.ErrorCode]; fatal {
		transient = false
	}

	return &model.ProviderError{
		Op:        op,
		Code:      body.ErrorCode,
		Message:   msg,
		Transient: transient,
	}
}

// classifyRPCError turns a Solana RPC failure into a provider error using
// the JSON-RPC code when one is present in the error text.
func classifyRPCError(op string, code int, message string) error {
	if msg, fatal := rpcFatalCodes[code]; fatal {
		return &model.ProviderError{
			Op:      op,
			Code:    fmt.Sprintf("%d", code),
			Message: fmt.Sprintf("%s: %s", msg, message),
		}
	}
	return &model.ProviderError{
		Op:        op,
		Code:      fmt.Sprintf("%d", code),
		Message:   message,
		Transient: true,
	}
}
