package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/execution"
	"tradeexecutor/src/model"
	"tradeexecutor/src/risk"
)

type signalRunner interface {
	HandleSignal(ctx context.Context, signal *model.TradingSignal) (*model.ExecutionRecord, error)
}

const maxSignalBody = 64 << 10

// SubmitSignalHandler returns a handler that accepts a manual trading signal
// and runs it through the same gate and state machine as the intake loop.
// Denied and duplicate signals map to 409, malformed payloads to 422.
func SubmitSignalHandler(runner signalRunner, defaults model.SignalDefaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSignalBody))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		signal, err := model.ParseTradingSignal(body, defaults)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		record, err := runner.HandleSignal(r.Context(), signal)
		if err != nil {
			var denied *risk.DeniedError
			switch {
			case errors.As(err, &denied):
				writeJSON(w, http.StatusConflict, map[string]string{
					"error":  "risk_denied",
					"reason": denied.Reason,
				})
			case errors.Is(err, execution.ErrAlreadyStarted):
				http.Error(w, "signal already executed", http.StatusConflict)
			default:
				logger.WithError(err).WithField("signal_id", signal.ID).
					Error("manual signal execution failed")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}

		if record == nil {
			// HOLD or otherwise non-actionable signal.
			writeJSON(w, http.StatusOK, map[string]string{
				"signal_id": signal.ID,
				"result":    "skipped",
			})
			return
		}

		writeJSON(w, http.StatusOK, record)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
