package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/usecase"
)

func TestTransactionQueryByReference(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedInitiated(repo)
	uc := usecase.NewTransactionQueryUseCase(repo)

	txn, err := uc.GetByReference(context.Background(), seeded.TransactionReference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if txn.ID != seeded.ID {
		t.Fatalf("expected transaction %d, got %d", seeded.ID, txn.ID)
	}

	_, err = uc.GetByReference(context.Background(), "no-such-reference")
	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTransactionQueryDefaultsLimit(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedInitiated(repo)
	seeded.CustomerID = "cust-1"
	_ = repo.Update(context.Background(), seeded)
	uc := usecase.NewTransactionQueryUseCase(repo)

	txns, err := uc.GetByCustomer(context.Background(), "cust-1", 0)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns))
	}
}

func TestBatchQueryByNumber(t *testing.T) {
	fx := seedBatch(t, 2)
	uc := usecase.NewBatchQueryUseCase(fx.batchRepo)

	batch, err := uc.GetByBatchNumber(context.Background(), fx.batch.BatchNumber)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if batch.TotalTransactions != 2 {
		t.Fatalf("expected 2 members, got %d", batch.TotalTransactions)
	}
	if batch.Status != model.BATCH_PENDING {
		t.Fatalf("expected PENDING, got %s", batch.Status)
	}
}
