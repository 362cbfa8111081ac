package trader

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tradeexecutor/src/connectors"
	"tradeexecutor/src/database"
	"tradeexecutor/src/decision"
	"tradeexecutor/src/execution"
	"tradeexecutor/src/executors"
	"tradeexecutor/src/model"
	"tradeexecutor/src/pricefeed"
	"tradeexecutor/src/repository"
	"tradeexecutor/src/risk"
	"tradeexecutor/src/server"
	"tradeexecutor/src/wallet"
)

type Trader struct {
}

type components struct {
	scheduler *executors.Scheduler
	gate      *risk.Gate
	ledger    *repository.LedgerRepository
	defaults  model.SignalDefaults
}

func build() (*components, error) {
	calls := connectors.GetConfig()
	jupiter := connectors.NewJupiterClient(calls.JupiterBaseURL)
	solana := connectors.NewSolanaClient(calls.SolanaRPCURL, calls.Commitment)
	confirmer := connectors.NewConfirmer(calls, solana)

	signer, err := wallet.NewManager()
	if err != nil {
		return nil, fmt.Errorf("wallet setup failed: %w", err)
	}
	logrus.WithField("wallet", signer.Address()).Info("wallet loaded")

	machine := execution.NewMachine(execution.GetConfig(), calls, jupiter, jupiter, signer, solana, confirmer)

	feed := pricefeed.NewFeed()
	refPrice, err := feed.Last()
	if err != nil {
		logrus.WithError(err).Warn("reference price unavailable at startup, breaker baseline deferred")
		refPrice = decimal.Zero
	}
	gate := risk.NewGate(risk.GetConfig(), refPrice)

	source := decision.NewHTTPClient()
	ledger := repository.NewLedgerRepository()

	scheduler := &executors.Scheduler{
		Config:  executors.GetConfig(),
		Gate:    gate,
		Machine: machine,
		Source:  source,
		Trigger: source,
		Prices:  feed,
		Ledger:  ledger,
	}

	return &components{
		scheduler: scheduler,
		gate:      gate,
		ledger:    ledger,
		defaults:  source.Defaults(),
	}, nil
}

// Start runs the full service: the polling loops plus the operational HTTP
// API, until SIGINT or SIGTERM.
func (t *Trader) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	comps, err := build()
	if err != nil {
		return err
	}

	go server.StartServer(ctx, server.GetConfig().Port, server.Deps{
		Scheduler: comps.scheduler,
		Gate:      comps.gate,
		Ledger:    comps.ledger,
		Defaults:  comps.defaults,
	})

	return comps.scheduler.StartLoops(ctx)
}

// TradeOnce executes a single manual signal and returns its terminal
// record. The gate and ledger apply exactly as in the loop.
func (t *Trader) TradeOnce(action string, amountSol float64, slippageBps int, dryRun bool) (*model.ExecutionRecord, error) {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return nil, err
	}

	comps, err := build()
	if err != nil {
		return nil, err
	}

	manual := &model.TradingSignal{
		ID:              uuid.NewString(),
		ReceivedAt:      time.Now().UTC(),
		Action:          action,
		Confidence:      1,
		Rationale:       "manual trade from the command line",
		SuggestedAmount: decimal.NewFromFloat(amountSol),
		SlippageBps:     slippageBps,
		DryRun:          dryRun,
	}
	if verr := manual.Validate(); verr != nil {
		return nil, verr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return comps.scheduler.HandleSignal(ctx, manual)
}
