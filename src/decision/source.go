// Package decision wraps the external decision collaborator: an
// LLM/agent subsystem that turns market data into BUY/SELL/HOLD signals.
// This side of the boundary only fetches, validates and forwards.
package decision

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
)

// Source yields the next trading signal, or nil when the collaborator has
// nothing new.
type Source interface {
	Next(ctx context.Context) (*model.TradingSignal, error)
}

// Trigger kicks off a fresh analysis round on the collaborator.
type Trigger interface {
	TriggerAnalysis(ctx context.Context) error
}

// HTTPClient polls the collaborator's signal endpoint and optionally
// triggers its analyze endpoint on the cadence loop.
type HTTPClient struct {
	cfg  Config
	http *resty.Client
}

func NewHTTPClient() *HTTPClient {
	cfg := GetConfig()
	return &HTTPClient{
		cfg: cfg,
		http: resty.New().
			SetTimeout(cfg.RequestTimeout).
			SetHeader("Accept", "application/json"),
	}
}

// Defaults returns the signal defaults derived from configuration.
func (c *HTTPClient) Defaults() model.SignalDefaults {
	return model.SignalDefaults{
		Amount:      decimal.NewFromFloat(c.cfg.DefaultAmountSol),
		SlippageBps: c.cfg.DefaultSlippageBps,
		DryRun:      c.cfg.DefaultDryRun,
	}
}

// Next fetches and validates the collaborator's latest signal. A 204 or 404
// means no new decision and yields (nil, nil).
func (c *HTTPClient) Next(ctx context.Context) (*model.TradingSignal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.cfg.SignalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decision signal: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("decision source returned status %d", resp.StatusCode())
	}

	signal, err := model.ParseTradingSignal(resp.Body(), c.Defaults())
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"signal_id":  signal.ID,
		"action":     signal.Action,
		"confidence": signal.Confidence,
		"dry_run":    signal.DryRun,
	}).Info("decision signal received")
	return signal, nil
}

// TriggerAnalysis asks the collaborator to run a fresh analysis. No-op when
// no analyze endpoint is configured.
func (c *HTTPClient) TriggerAnalysis(ctx context.Context) error {
	if c.cfg.AnalyzeURL == "" {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Post(c.cfg.AnalyzeURL)
	if err != nil {
		return fmt.Errorf("failed to trigger analysis: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("analysis trigger returned status %d", resp.StatusCode())
	}
	return nil
}
