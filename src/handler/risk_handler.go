package handler

import (
	"net/http"

	"tradeexecutor/src/risk"
)

type riskSnapshotter interface {
	Snapshot() risk.Snapshot
}

// RiskStateHandler returns the current gate counters and circuit breaker
// window for operators and the risk CLI command.
func RiskStateHandler(gate riskSnapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gate.Snapshot())
	}
}
