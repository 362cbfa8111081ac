package repository

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tradeexecutor/src/model"
)

func validSignature() string {
	return base58.Encode(bytes.Repeat([]byte{0xff}, 64))
}

func TestLedgerRepositoryAppend(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&LedgerRepository{}).WithDB(mockDB)

	sig := validSignature()
	record := &model.ExecutionRecord{
		ID:          "5c5a9f0e-8c44-4b6c-9a78-5f3f6f6b2a11",
		ReceivedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SignalID:    "5c5a9f0e-8c44-4b6c-9a78-5f3f6f6b2a11",
		Action:      "BUY",
		Confidence:  0.9,
		Rationale:   "momentum building on the hourly chart",
		InputMint:   model.UsdtMint,
		OutputMint:  model.SolMint,
		InputAmount: decimal.NewFromFloat(0.05),
		Status:      model.ExecutionStatusSuccess,
		TxSignature: &sig,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "execution_records"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Append(context.Background(), record); err != nil {
		t.Fatalf("expected append to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestLedgerRepositoryAppendRejectsInvalidRecord(t *testing.T) {
	mockDB, _ := newMockDB(t)
	repo := (&LedgerRepository{}).WithDB(mockDB)

	// SUCCESS without a signature violates the ledger invariant and must
	// never reach the database.
	record := &model.ExecutionRecord{
		ID:     "e3d9c2aa-93f4-44f0-bf4c-68b3f4f7d101",
		Action: "BUY",
		Status: model.ExecutionStatusSuccess,
	}

	if err := repo.Append(context.Background(), record); err == nil {
		t.Fatal("expected append of invalid record to fail")
	}
}

func TestLedgerRepositoryFindByID(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&LedgerRepository{}).WithDB(mockDB)

	rows := sqlmock.NewRows([]string{"id", "action", "status"}).
		AddRow("abc", "SELL", model.ExecutionStatusFailed)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "execution_records" WHERE id = $1 ORDER BY "execution_records"."id" LIMIT $2`)).
		WithArgs("abc", 1).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), "abc")
	if err != nil || found == nil {
		t.Fatalf("expected to find record by id, got %+v err=%v", found, err)
	}
	if found.Status != model.ExecutionStatusFailed {
		t.Fatalf("unexpected status %q", found.Status)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "execution_records" WHERE id = $1 ORDER BY "execution_records"."id" LIMIT $2`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	missing, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("lookup of absent record must not error, got %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent record, got %+v", missing)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestLedgerRepositoryFindUnknown(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&LedgerRepository{}).WithDB(mockDB)

	rows := sqlmock.NewRows([]string{"id", "status"}).
		AddRow("first", model.ExecutionStatusUnknown).
		AddRow("second", model.ExecutionStatusUnknown)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "execution_records" WHERE status = $1 AND reconciled_at IS NULL ORDER BY received_at ASC`)).
		WithArgs(model.ExecutionStatusUnknown).
		WillReturnRows(rows)

	records, err := repo.FindUnknown(context.Background())
	if err != nil {
		t.Fatalf("unexpected error listing unknown records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 unknown records, got %d", len(records))
	}
	if records[0].ID != "first" {
		t.Fatalf("expected oldest record first, got %+v", records[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestLedgerRepositoryMarkReconciled(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&LedgerRepository{}).WithDB(mockDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "execution_records" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.MarkReconciled(context.Background(), "abc", model.ExecutionStatusSuccess, "signature landed in slot 123"); err != nil {
		t.Fatalf("expected reconcile to succeed, got %v", err)
	}

	// A terminal non-unknown row matches no rows and must be rejected.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "execution_records" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkReconciled(context.Background(), "done", model.ExecutionStatusSuccess, "")
	if err != ErrNotReconcilable {
		t.Fatalf("expected ErrNotReconcilable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm with sqlmock: %v", err)
	}

	return db, mock
}
