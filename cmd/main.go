package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradeexecutor/cmd/keys"
	"tradeexecutor/cmd/trader"
	"tradeexecutor/src/model"
	"tradeexecutor/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Trade Executor CMD"
	app.Usage = "The trade executor command line interface"

	app.Commands = []cli.Command{
		runCMD,
		tradeCMD,
		riskCMD,
		keysCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	runCMD = cli.Command{
		Name:        "run",
		Usage:       "run the trade executor service",
		Action:      runAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the signal intake loop, the cadence loop and the operational API`,
	}
	tradeCMD = cli.Command{
		Name:      "trade",
		Usage:     "execute a single manual trade",
		Action:    tradeAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "action",
				Usage: "BUY or SELL",
				Value: "BUY",
			},
			cli.Float64Flag{
				Name:  "amount",
				Usage: "trade size in SOL",
				Value: 0.01,
			},
			cli.IntFlag{
				Name:  "slippage",
				Usage: "slippage tolerance in basis points",
				Value: 50,
			},
			cli.BoolFlag{
				Name:  "live",
				Usage: "submit for real instead of the default dry run",
			},
		},
		Description: `Execute one trade through the same gate and state machine as the service`,
	}
	riskCMD = cli.Command{
		Name:        "risk",
		Usage:       "show the risk state of the running service",
		Action:      riskAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Query a running service for its trade counters and circuit breaker state`,
	}
	keysCMD = cli.Command{
		Name:        "keys",
		Usage:       "prepare encrypted wallet credentials",
		Action:      keysAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Interactive CLI that seals a wallet private key for the environment`,
	}
)

func runAction(_ *cli.Context) error {

	logrus.Info("Starting trade executor CMD")
	logrus.WithField("cmd", "run")

	t := &trader.Trader{}
	err := t.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func tradeAction(c *cli.Context) error {

	logrus.Info("Starting manual trade CMD")

	t := &trader.Trader{}
	record, err := t.TradeOnce(
		c.String("action"),
		c.Float64("amount"),
		c.Int("slippage"),
		!c.Bool("live"),
	)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if record == nil {
		logrus.Info("signal skipped")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"record_id": record.ID,
		"status":    record.Status,
		"signature": strOrEmpty(record.TxSignature),
	}).Info("trade finished")

	switch record.Status {
	case model.ExecutionStatusSuccess, model.ExecutionStatusDryRun:
		return nil
	case model.ExecutionStatusUnknown:
		return cli.NewExitError("trade outcome unknown, check the signature on-chain and reconcile", 2)
	default:
		return cli.NewExitError(fmt.Sprintf("trade failed: %s", strOrEmpty(record.ErrorMessage)), 1)
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func keysAction(_ *cli.Context) error {

	logrus.Info("Starting wallet keys CMD")

	return keys.Run()
}

func riskAction(_ *cli.Context) error {

	port := server.GetConfig().Port
	resp, err := resty.New().R().Get(fmt.Sprintf("http://localhost:%s/risk", port))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("service unreachable on port %s: %v", port, err), 1)
	}
	if resp.StatusCode() != 200 {
		return cli.NewExitError(fmt.Sprintf("unexpected status %d", resp.StatusCode()), 1)
	}

	fmt.Println(string(resp.Body()))
	return nil
}
