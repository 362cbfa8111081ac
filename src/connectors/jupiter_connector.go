// REST CLIENT FOR THE JUPITER V6 SWAP AGGREGATOR
// RESTY ONLY, RETRIES ARE DECIDED PER CALL SITE BY THE EXECUTION MACHINE
package connectors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
)

// JupiterClient talks to the Jupiter quote and swap-build endpoints.
type JupiterClient struct {
	baseURL string
	http    *resty.Client
}

// quoteResponse mirrors the fields we consume from /v6/quote; the full body
// is kept raw for the swap build.
type quoteResponse struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			AmmKey string `json:"ammKey"`
			Label  string `json:"label"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

type jupiterErrorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

func NewJupiterClient(baseURL string) *JupiterClient {
	if baseURL == "" {
		baseURL = "https://quote-api.jup.ag"
		logger.Warnf("No Jupiter base URL provided, using default: %s", baseURL)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	return &JupiterClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// GetQuote fetches a swap quote. amount is in base units of the input mint.
// The caller owns the deadline via ctx; transient classification happens in
// classifyJupiterError.
func (c *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*model.Quote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   inputMint,
			"outputMint":  outputMint,
			"amount":      strconv.FormatUint(amount, 10),
			"slippageBps": strconv.Itoa(slippageBps),
		}).
		Get("/v6/quote")
	if err != nil {
		return nil, classifyTransportError("jupiter quote", err)
	}
	if resp.StatusCode() != 200 {
		return nil, classifyJupiterError("jupiter quote", resp)
	}

	raw := resp.Body()
	var quote quoteResponse
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, &model.ProviderError{Op: "jupiter quote", Message: fmt.Sprintf("malformed quote response: %v", err)}
	}

	inAmount, err := strconv.ParseUint(quote.InAmount, 10, 64)
	if err != nil {
		return nil, &model.ProviderError{Op: "jupiter quote", Message: fmt.Sprintf("invalid inAmount %q", quote.InAmount)}
	}
	outAmount, err := strconv.ParseUint(quote.OutAmount, 10, 64)
	if err != nil {
		return nil, &model.ProviderError{Op: "jupiter quote", Message: fmt.Sprintf("invalid outAmount %q", quote.OutAmount)}
	}

	out := &model.Quote{
		InputMint:      quote.InputMint,
		OutputMint:     quote.OutputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		PriceImpactBps: priceImpactBps(quote.PriceImpactPct),
		RouteID:        routeID(quote),
		FetchedAt:      time.Now().UTC(),
		Raw:            json.RawMessage(append([]byte(nil), raw...)),
	}

	logger.WithFields(map[string]interface{}{
		"input_mint":       shortMint(inputMint),
		"output_mint":      shortMint(outputMint),
		"amount":           amount,
		"out_amount":       outAmount,
		"price_impact_bps": out.PriceImpactBps,
	}).Info("jupiter quote fetched")

	return out, nil
}

// BuildSwap asks Jupiter for a ready-to-sign transaction for the given quote
// and returns the raw unsigned transaction bytes.
func (c *JupiterClient) BuildSwap(ctx context.Context, quote *model.Quote, userAddress string) ([]byte, error) {
	body := swapRequest{
		QuoteResponse:    quote.Raw,
		UserPublicKey:    userAddress,
		WrapAndUnwrapSol: true,
	}

	var out swapResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/v6/swap")
	if err != nil {
		return nil, classifyTransportError("jupiter swap build", err)
	}
	if resp.StatusCode() != 200 {
		return nil, classifyJupiterError("jupiter swap build", resp)
	}

	txBytes, err := base64.StdEncoding.DecodeString(out.SwapTransaction)
	if err != nil {
		return nil, &model.ProviderError{Op: "jupiter swap build", Message: fmt.Sprintf("failed to decode transaction: %v", err)}
	}

	logger.WithField("tx_size", len(txBytes)).Info("jupiter swap transaction built")
	return txBytes, nil
}

// priceImpactBps converts Jupiter's percentage string into basis points,
// rounding up so an impact right at the tolerance edge still trips it.
func priceImpactBps(pct string) int {
	v, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return 0
	}
	return int(math.Ceil(v * 100))
}

func routeID(q quoteResponse) string {
	if len(q.RoutePlan) == 0 {
		return ""
	}
	id := q.RoutePlan[0].SwapInfo.Label
	if key := q.RoutePlan[0].SwapInfo.AmmKey; key != "" {
		id += ":" + key
	}
	return id
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8]
}
