package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeexecutor/src/database"
	"tradeexecutor/src/model"
)

// ErrNotReconcilable rejects reconciliation of a record that is not in the
// UNKNOWN state.
var ErrNotReconcilable = errors.New("only unknown records can be reconciled")

// LedgerRepository handles the append-only execution ledger. Rows are
// written once per attempt and never mutated after reaching a terminal
// status, except to append reconciliation data to UNKNOWN rows.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a repository on the main read/write database.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *LedgerRepository) WithDB(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append writes one terminal execution record.
func (r *LedgerRepository) Append(ctx context.Context, record *model.ExecutionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("refusing to append invalid record: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "LedgerRepository",
			"op":        "Append",
			"record_id": record.ID,
		}).WithError(err).Error("failed to append execution record")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"record_id": record.ID,
		"status":    record.Status,
	}).Debug("execution record appended")
	return nil
}

// FindByID fetches a record by its id, nil when absent.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*model.ExecutionRecord, error) {
	var record model.ExecutionRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindBySignature looks a record up by its transaction signature.
func (r *LedgerRepository) FindBySignature(ctx context.Context, signature string) (*model.ExecutionRecord, error) {
	var record model.ExecutionRecord
	err := r.db.WithContext(ctx).First(&record, "tx_signature = ?", signature).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindUnknown lists UNKNOWN records awaiting operator reconciliation,
// oldest first.
func (r *LedgerRepository) FindUnknown(ctx context.Context) ([]model.ExecutionRecord, error) {
	var records []model.ExecutionRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND reconciled_at IS NULL", model.ExecutionStatusUnknown).
		Order("received_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Latest returns the most recent records for the operational surface.
func (r *LedgerRepository) Latest(ctx context.Context, limit int) ([]model.ExecutionRecord, error) {
	var records []model.ExecutionRecord
	err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkReconciled appends reconciliation data to an UNKNOWN record. The
// original status stays untouched; the resolved outcome lives in
// final_status so the ledger remains append-only in spirit.
func (r *LedgerRepository) MarkReconciled(ctx context.Context, id, finalStatus, note string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&model.ExecutionRecord{}).
		Where("id = ? AND status = ?", id, model.ExecutionStatusUnknown).
		Updates(map[string]interface{}{
			"reconciled_at":  now,
			"final_status":   finalStatus,
			"reconcile_note": note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotReconcilable
	}
	return nil
}
