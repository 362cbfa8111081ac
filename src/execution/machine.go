// Package execution drives one trade attempt through the
// quote → build → sign → submit → confirm pipeline with distinct
// retry/timeout/idempotency semantics per step.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/connectors"
	"tradeexecutor/src/model"
)

// State labels the position of an attempt inside the pipeline.
type State string

const (
	StateReceived  State = "received"
	StateQuoted    State = "quoted"
	StateBuilt     State = "built"
	StateSigned    State = "signed"
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
	StateUnknown   State = "unknown"
	StateDryRun    State = "dry_run_completed"
)

// fallbackFeeLamports approximates the network fee when the confirmation
// details could not be fetched.
const fallbackFeeLamports = 5000

type quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*model.Quote, error)
}

type swapBuilder interface {
	BuildSwap(ctx context.Context, quote *model.Quote, userAddress string) ([]byte, error)
}

type signer interface {
	Sign(unsignedTx []byte) ([]byte, error)
	Address() string
}

type submitter interface {
	Submit(ctx context.Context, signedTx []byte) (string, error)
}

type confirmer interface {
	Await(ctx context.Context, signature string) (*connectors.Confirmation, error)
}

// Machine executes trade attempts for one trading pair. At most one attempt
// runs at a time; a second signal must wait for the mutex, and a repeated
// signal instance is rejected by the in-flight registry.
type Machine struct {
	cfg   Config
	calls connectors.Config

	quoter    quoter
	builder   swapBuilder
	signer    signer
	submitter submitter
	confirmer confirmer

	registry *inflightRegistry
	mu       sync.Mutex
	now      func() time.Time
}

func NewMachine(cfg Config, calls connectors.Config, q quoter, b swapBuilder, s signer, sub submitter, c confirmer) *Machine {
	return &Machine{
		cfg:       cfg,
		calls:     calls,
		quoter:    q,
		builder:   b,
		signer:    s,
		submitter: sub,
		confirmer: c,
		registry:  newInflightRegistry(),
		now:       time.Now,
	}
}

// Execute runs one attempt to a terminal record. amount is the
// position-sized trade amount the risk gate approved. The returned record
// is always terminal; ErrAlreadyStarted means no record was produced
// because this signal instance already left the received state.
func (m *Machine) Execute(ctx context.Context, signal *model.TradingSignal, amount decimal.Decimal) (*model.ExecutionRecord, error) {
	if err := m.registry.begin(signal.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now()
	record := m.newRecord(signal, amount)
	log := logger.WithFields(map[string]interface{}{
		"record_id": record.ID,
		"signal_id": signal.ID,
		"action":    signal.Action,
		"amount":    amount,
		"dry_run":   signal.DryRun,
	})
	log.Info("execution started")

	// Received → Quoted
	quote, err := m.fetchQuote(ctx, record)
	if err != nil {
		return m.fail(record, start, err), nil
	}
	m.applyQuote(record, quote)

	// Dry runs never reach the network submission path: synthesize the
	// terminal record from the quote and stop.
	if signal.DryRun {
		record.Status = model.ExecutionStatusDryRun
		record.DurationMs = m.sinceMs(start)
		log.WithField("expected_output", record.ExpectedOutput).Info("dry-run completed")
		return record, nil
	}

	// Slippage tolerance check precedes the build call.
	if quote.PriceImpactBps > signal.SlippageBps {
		err := fmt.Errorf("price impact %d bps exceeds tolerance %d bps", quote.PriceImpactBps, signal.SlippageBps)
		return m.failKind(record, start, model.ErrKindSlippageExceeded, err), nil
	}

	// A stale quote must be re-fetched before a transaction is built on it.
	if quote.Stale(m.cfg.QuoteTTL, m.now()) {
		log.Info("quote stale, re-fetching before build")
		quote, err = m.fetchQuote(ctx, record)
		if err != nil {
			return m.fail(record, start, err), nil
		}
		m.applyQuote(record, quote)
		if quote.PriceImpactBps > signal.SlippageBps {
			err := fmt.Errorf("price impact %d bps exceeds tolerance %d bps", quote.PriceImpactBps, signal.SlippageBps)
			return m.failKind(record, start, model.ErrKindSlippageExceeded, err), nil
		}
	}

	// Quoted → Built
	unsignedTx, err := m.buildSwap(ctx, quote)
	if err != nil {
		return m.fail(record, start, err), nil
	}

	// Built → Signed. Signing failures are always fatal: retrying a
	// signature request can produce two distinct valid payloads for the
	// same logical trade.
	signedTx, err := m.sign(unsignedTx)
	if err != nil {
		return m.failKind(record, start, model.ErrKindSigning, err), nil
	}

	// Past Signed the attempt must reach a terminal state even if the
	// scheduler is shutting down: a signed transaction in flight is never
	// abandoned before a submission attempt.
	detached := context.WithoutCancel(ctx)

	// Signed → Submitted
	signature, err := m.submit(detached, signedTx)
	if err != nil {
		return m.fail(record, start, err), nil
	}
	record.TxSignature = &signature

	// Submitted → Confirmed | Unknown
	return m.awaitConfirmation(detached, record, quote, signature, start), nil
}

func (m *Machine) newRecord(signal *model.TradingSignal, amount decimal.Decimal) *model.ExecutionRecord {
	inputMint, outputMint := model.PairForAction(signal.Action)
	return &model.ExecutionRecord{
		ID:          signal.ID,
		ReceivedAt:  signal.ReceivedAt,
		SignalID:    signal.ID,
		Action:      signal.Action,
		Confidence:  signal.Confidence,
		Rationale:   signal.Rationale,
		InputMint:   inputMint,
		OutputMint:  outputMint,
		InputAmount: amount,
		SlippageBps: signal.SlippageBps,
		Status:      model.ExecutionStatusPending,
	}
}

func (m *Machine) fetchQuote(ctx context.Context, record *model.ExecutionRecord) (*model.Quote, error) {
	policy := RetryPolicy{
		MaxAttempts: m.cfg.QuoteRetryAttempts,
		BackoffBase: m.cfg.QuoteBackoffBase,
		Retryable:   IsTransient,
	}

	amountUnits := model.ToBaseUnits(record.InputAmount, record.InputMint)

	var quote *model.Quote
	err := policy.Do(ctx, "quote", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, m.calls.QuoteTimeout)
		defer cancel()

		q, err := m.quoter.GetQuote(callCtx, record.InputMint, record.OutputMint, amountUnits, record.SlippageBps)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	return quote, err
}

func (m *Machine) applyQuote(record *model.ExecutionRecord, quote *model.Quote) {
	expected := quote.ExpectedOutput()
	record.ExpectedOutput = &expected
	impact := quote.PriceImpactBps
	record.PriceImpactBps = &impact
	if quote.RouteID != "" {
		route := quote.RouteID
		record.RouteID = &route
	}
}

func (m *Machine) buildSwap(ctx context.Context, quote *model.Quote) ([]byte, error) {
	policy := RetryPolicy{
		MaxAttempts: m.cfg.BuildRetryAttempts,
		BackoffBase: m.cfg.QuoteBackoffBase,
		Retryable:   IsTransient,
	}

	var unsignedTx []byte
	err := policy.Do(ctx, "build", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, m.calls.BuildTimeout)
		defer cancel()

		tx, err := m.builder.BuildSwap(callCtx, quote, m.signer.Address())
		if err != nil {
			return err
		}
		unsignedTx = tx
		return nil
	})
	return unsignedTx, err
}

// sign runs the signer under the configured deadline. Signing is local and
// takes no context, so a hung signer is abandoned and the attempt fails
// before anything reaches the chain.
func (m *Machine) sign(unsignedTx []byte) ([]byte, error) {
	type result struct {
		tx  []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		tx, err := m.signer.Sign(unsignedTx)
		done <- result{tx: tx, err: err}
	}()

	timer := time.NewTimer(m.cfg.SignTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.tx, r.err
	case <-timer.C:
		return nil, fmt.Errorf("signing did not complete within %s", m.cfg.SignTimeout)
	}
}

// submit sends the signed transaction, retrying at most once and only on a
// connection-level failure where no handle was returned. A timed-out
// submission is ambiguous (the transaction may have landed) and is never
// retried blindly.
func (m *Machine) submit(ctx context.Context, signedTx []byte) (string, error) {
	attempt := func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, m.calls.SubmitTimeout)
		defer cancel()
		return m.submitter.Submit(callCtx, signedTx)
	}

	signature, err := attempt()
	if err == nil {
		return signature, nil
	}
	if IsTransient(err) && !errors.Is(err, context.DeadlineExceeded) && !isTimeout(err) {
		logger.WithError(err).Warn("submit connection failure before a handle was assigned, retrying once")
		return attempt()
	}
	return "", err
}

func (m *Machine) awaitConfirmation(ctx context.Context, record *model.ExecutionRecord, quote *model.Quote, signature string, start time.Time) *model.ExecutionRecord {
	confirmCtx, cancel := context.WithTimeout(ctx, m.calls.ConfirmTimeout)
	defer cancel()

	confirmation, err := m.confirmer.Await(confirmCtx, signature)
	if err != nil {
		if errors.Is(err, connectors.ErrConfirmationTimeout) {
			// Terminal but unresolved: the transaction may still land.
			// Surface distinctly so operators reconcile instead of
			// assuming a safe failure.
			record.Status = model.ExecutionStatusUnknown
			kind := model.ErrKindConfirmationTimeout
			record.ErrorKind = &kind
			msg := fmt.Sprintf("confirmation not observed within %s; look up signature %s manually and reconcile", m.calls.ConfirmTimeout, signature)
			record.ErrorMessage = &msg
			record.DurationMs = m.sinceMs(start)
			logger.WithFields(map[string]interface{}{
				"record_id": record.ID,
				"signature": signature,
			}).Warn("confirmation timed out, outcome unknown")
			return record
		}
		return m.fail(record, start, err)
	}

	record.Status = model.ExecutionStatusSuccess
	actual := quote.ExpectedOutput()
	record.ActualOutput = &actual
	fee := confirmation.FeeLamports
	if fee == 0 {
		fee = fallbackFeeLamports
	}
	record.GasFeeLamports = &fee
	record.DurationMs = m.sinceMs(start)

	logger.WithFields(map[string]interface{}{
		"record_id":   record.ID,
		"signature":   signature,
		"fee":         fee,
		"duration_ms": record.DurationMs,
	}).Info("trade executed successfully")
	return record
}

func (m *Machine) fail(record *model.ExecutionRecord, start time.Time, err error) *model.ExecutionRecord {
	kind := model.ErrKindTransientNetwork
	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		kind = provErr.Kind()
	}
	return m.failKind(record, start, kind, err)
}

func (m *Machine) failKind(record *model.ExecutionRecord, start time.Time, kind string, err error) *model.ExecutionRecord {
	record.Status = model.ExecutionStatusFailed
	record.ErrorKind = &kind
	msg := err.Error()
	record.ErrorMessage = &msg
	record.DurationMs = m.sinceMs(start)

	logger.WithError(err).WithFields(map[string]interface{}{
		"record_id":  record.ID,
		"error_kind": kind,
	}).Error("trade execution failed")
	return record
}

func (m *Machine) sinceMs(start time.Time) int64 {
	return m.now().Sub(start).Milliseconds()
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}
