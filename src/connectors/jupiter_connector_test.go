package connectors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradeexecutor/src/model"
)

func TestGetQuote(t *testing.T) {
	quoteBody := `{
		"inputMint": "` + model.UsdtMint + `",
		"outputMint": "` + model.SolMint + `",
		"inAmount": "10000000",
		"outAmount": "500000000",
		"priceImpactPct": "0.12",
		"routePlan": [{"swapInfo": {"ammKey": "AmmKey111", "label": "Raydium"}}]
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/quote" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("inputMint") != model.UsdtMint || q.Get("outputMint") != model.SolMint {
			t.Fatalf("unexpected mints in query: %v", q)
		}
		if q.Get("amount") != "10000000" || q.Get("slippageBps") != "50" {
			t.Fatalf("unexpected amount/slippage in query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	client := NewJupiterClient(srv.URL)
	quote, err := client.GetQuote(context.Background(), model.UsdtMint, model.SolMint, 10_000_000, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.InAmount != 10_000_000 || quote.OutAmount != 500_000_000 {
		t.Fatalf("unexpected amounts: %+v", quote)
	}
	if quote.PriceImpactBps != 12 {
		t.Fatalf("expected 12 bps price impact, got %d", quote.PriceImpactBps)
	}
	if quote.RouteID != "Raydium:AmmKey111" {
		t.Fatalf("unexpected route id %q", quote.RouteID)
	}
	if len(quote.Raw) == 0 {
		t.Fatal("raw quote body must be preserved for the swap build")
	}
}

func TestGetQuoteErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
		wantCode      string
	}{
		{
			name:          "no route is fatal",
			status:        400,
			body:          `{"error":"no route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`,
			wantTransient: false,
			wantCode:      "COULD_NOT_FIND_ANY_ROUTE",
		},
		{
			name:          "server error is transient",
			status:        502,
			body:          `bad gateway`,
			wantTransient: true,
		},
		{
			name:          "throttling is transient",
			status:        429,
			body:          `{"error":"rate limited"}`,
			wantTransient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewJupiterClient(srv.URL)
			_, err := client.GetQuote(context.Background(), model.UsdtMint, model.SolMint, 1000, 50)
			if err == nil {
				t.Fatal("expected an error")
			}

			var provErr *model.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected *model.ProviderError, got %T", err)
			}
			if provErr.Transient != tt.wantTransient {
				t.Fatalf("transient = %v, want %v (%v)", provErr.Transient, tt.wantTransient, provErr)
			}
			if tt.wantCode != "" && provErr.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", provErr.Code, tt.wantCode)
			}
		})
	}
}

func TestBuildSwap(t *testing.T) {
	unsignedTx := []byte("serialized-solana-transaction")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/swap" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req swapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode swap request: %v", err)
		}
		if req.UserPublicKey != "UserPubkey111" {
			t.Fatalf("unexpected user key %q", req.UserPublicKey)
		}
		if !req.WrapAndUnwrapSol {
			t.Fatal("expected SOL wrapping to be requested")
		}
		if string(req.QuoteResponse) != `{"quote":"raw"}` {
			t.Fatalf("quote must be echoed back verbatim, got %s", req.QuoteResponse)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(swapResponse{
			SwapTransaction: base64.StdEncoding.EncodeToString(unsignedTx),
		})
	}))
	defer srv.Close()

	client := NewJupiterClient(srv.URL)
	quote := &model.Quote{Raw: json.RawMessage(`{"quote":"raw"}`)}

	tx, err := client.BuildSwap(context.Background(), quote, "UserPubkey111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(tx) != string(unsignedTx) {
		t.Fatalf("unexpected transaction bytes %q", tx)
	}
}

func TestPriceImpactBps(t *testing.T) {
	cases := []struct {
		pct  string
		want int
	}{
		{pct: "0.5", want: 50},
		{pct: "0.001", want: 1}, // rounds up so edge impacts still trip
		{pct: "0", want: 0},
		{pct: "not-a-number", want: 0},
	}
	for _, tc := range cases {
		if got := priceImpactBps(tc.pct); got != tc.want {
			t.Fatalf("priceImpactBps(%s) = %d, want %d", tc.pct, got, tc.want)
		}
	}
}

func TestClassifyRPCError(t *testing.T) {
	err := classifyRPCError("submit", -32003, "signature verification failed")
	var provErr *model.ProviderError
	if !errors.As(err, &provErr) || provErr.Transient {
		t.Fatalf("signature verification failure must be fatal, got %+v", err)
	}

	err = classifyRPCError("submit", -32005, "node is behind")
	if !errors.As(err, &provErr) || !provErr.Transient {
		t.Fatalf("unknown rpc codes must stay transient, got %+v", err)
	}
}
