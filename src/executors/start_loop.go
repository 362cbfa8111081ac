package executors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/decision"
	"tradeexecutor/src/execution"
	"tradeexecutor/src/metrics"
	"tradeexecutor/src/model"
	"tradeexecutor/src/risk"
)

type ledgerAppender interface {
	Append(ctx context.Context, record *model.ExecutionRecord) error
}

type priceSource interface {
	Last() (decimal.Decimal, error)
}

// Scheduler runs the intake loop and the optional cadence loop for one
// trading pair. Both loops share the gate and are cancelled together; the
// state machine serializes executions so at most one trade is in flight.
type Scheduler struct {
	Config  Config
	Gate    *risk.Gate
	Machine *execution.Machine
	Source  decision.Source
	Trigger decision.Trigger
	Prices  priceSource
	Ledger  ledgerAppender
}

// StartLoops runs both loops until ctx is cancelled. A loop body failure is
// logged and retried after a fixed delay; it never terminates the loop.
func (s *Scheduler) StartLoops(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.intakeLoop(ctx)
	}()

	if s.Config.CadenceEnabled && s.Trigger != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.cadenceLoop(ctx)
		}()
	}

	wg.Wait()
	logger.Info("scheduler loops stopped")
	return nil
}

func (s *Scheduler) intakeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Config.PollInterval)
	defer ticker.Stop()

	logger.WithField("poll_interval", s.Config.PollInterval).Info("intake loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("intake loop stopped")
			return

		case <-ticker.C:
			if err := s.intakeCycle(ctx); err != nil {
				logger.WithError(err).Error("intake cycle failed")
				s.sleep(ctx, s.Config.LoopRetryDelay)
			}
		}
	}
}

func (s *Scheduler) intakeCycle(ctx context.Context) error {
	signal, err := s.Source.Next(ctx)
	if err != nil {
		return err
	}
	if signal == nil {
		logger.Debug("no new decision signal")
		return nil
	}

	_, err = s.HandleSignal(ctx, signal)
	var denied *risk.DeniedError
	if errors.As(err, &denied) {
		// Already audit-logged by the gate; the loop keeps running.
		return nil
	}
	return err
}

func (s *Scheduler) cadenceLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Config.CadenceInterval)
	defer ticker.Stop()

	logger.WithField("cadence_interval", s.Config.CadenceInterval).Info("cadence loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("cadence loop stopped")
			return

		case <-ticker.C:
			if err := s.Trigger.TriggerAnalysis(ctx); err != nil {
				logger.WithError(err).Error("cadence trigger failed")
				s.sleep(ctx, s.Config.LoopRetryDelay)
			}
		}
	}
}

// HandleSignal feeds one validated signal through the risk gate and, when
// allowed, the execution state machine; the terminal record is appended to
// the ledger and committed back into the risk state. HOLD signals stop
// here. Also the entry point for manual signals from the operational
// surface.
func (s *Scheduler) HandleSignal(ctx context.Context, signal *model.TradingSignal) (*model.ExecutionRecord, error) {
	metrics.SignalsTotal.WithLabelValues(signal.Action).Inc()

	if !signal.IsActionable() {
		logger.WithFields(map[string]interface{}{
			"signal_id": signal.ID,
			"action":    signal.Action,
		}).Info("signal is not actionable, skipping")
		return nil, nil
	}

	nowPrice, err := s.Prices.Last()
	if err != nil {
		// Risk evaluation degrades: the breaker window still applies,
		// only the shock detection is skipped for this request.
		logger.WithError(err).Warn("reference price unavailable")
		nowPrice = decimal.Zero
	}

	verdict := s.Gate.Evaluate(signal, nowPrice)
	if !verdict.Allowed {
		metrics.RiskDenialsTotal.WithLabelValues(verdict.Reason).Inc()
		return nil, &risk.DeniedError{Reason: verdict.Reason}
	}

	record, err := s.Machine.Execute(ctx, signal, verdict.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.Ledger.Append(ctx, record); err != nil {
		// The attempt already reached a terminal state; losing the ledger
		// row is logged loudly but must not crash the loop.
		logger.WithError(err).WithField("record_id", record.ID).
			Error("failed to persist execution record")
	}

	s.Gate.Commit(record.Status)
	metrics.ExecutionsTotal.WithLabelValues(record.Action, record.Status).Inc()

	return record, nil
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
