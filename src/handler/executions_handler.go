package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
	"tradeexecutor/src/repository"
)

type ledgerReader interface {
	Latest(ctx context.Context, limit int) ([]model.ExecutionRecord, error)
	FindByID(ctx context.Context, id string) (*model.ExecutionRecord, error)
	FindUnknown(ctx context.Context) ([]model.ExecutionRecord, error)
	MarkReconciled(ctx context.Context, id, finalStatus, note string) error
}

// ListExecutionsHandler lists the most recent execution records. The
// unknown=true filter narrows the list to unreconciled unknown outcomes.
func ListExecutionsHandler(repo ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("unknown") == "true" {
			records, err := repo.FindUnknown(r.Context())
			if err != nil {
				logger.WithError(err).Error("failed to list unknown executions")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, records)
			return
		}

		limit := 20
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 || parsed > 500 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		records, err := repo.Latest(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list executions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// GetExecutionHandler fetches one execution record by signal id.
func GetExecutionHandler(repo ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		record, err := repo.FindByID(r.Context(), id)
		if err != nil {
			logger.WithError(err).WithField("record_id", id).Error("failed to load execution record")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if record == nil {
			http.Error(w, "execution not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

type reconcileRequest struct {
	FinalStatus string `json:"final_status"`
	Note        string `json:"note"`
}

// ReconcileExecutionHandler lets an operator close out an unknown outcome
// after checking the transaction signature on-chain. Only unknown records
// accept reconciliation; the original status row is never rewritten.
func ReconcileExecutionHandler(repo ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed reconcile payload", http.StatusBadRequest)
			return
		}
		if req.FinalStatus != model.ExecutionStatusSuccess && req.FinalStatus != model.ExecutionStatusFailed {
			http.Error(w, "final_status must be success or failed", http.StatusBadRequest)
			return
		}

		if err := repo.MarkReconciled(r.Context(), id, req.FinalStatus, req.Note); err != nil {
			if errors.Is(err, repository.ErrNotReconcilable) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.WithError(err).WithField("record_id", id).Error("failed to reconcile execution record")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"record_id":    id,
			"final_status": req.FinalStatus,
		})
	}
}
