package usecase

import (
	"context"
	"time"

	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/repository"
)

const defaultQueryLimit = 50

// TransactionQueryUseCase serves read-only projections. Nothing here
// mutates state.
type TransactionQueryUseCase struct {
	repo repository.TransactionRepository
}

func NewTransactionQueryUseCase(repo repository.TransactionRepository) *TransactionQueryUseCase {
	return &TransactionQueryUseCase{repo: repo}
}

func (uc *TransactionQueryUseCase) GetByID(ctx context.Context, id uint) (*model.Transaction, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *TransactionQueryUseCase) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	return uc.repo.GetByReference(ctx, reference)
}

func (uc *TransactionQueryUseCase) GetByCustomer(ctx context.Context, customerID string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return uc.repo.GetByCustomerID(ctx, customerID, limit)
}

func (uc *TransactionQueryUseCase) GetByStatus(ctx context.Context, status model.TransactionStatus, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return uc.repo.GetByStatus(ctx, status, limit)
}

func (uc *TransactionQueryUseCase) GetByBatchNumber(ctx context.Context, batchNumber string) ([]model.Transaction, error) {
	return uc.repo.GetByBatchNumber(ctx, batchNumber)
}

type BatchQueryUseCase struct {
	repo repository.BatchRepository
}

func NewBatchQueryUseCase(repo repository.BatchRepository) *BatchQueryUseCase {
	return &BatchQueryUseCase{repo: repo}
}

func (uc *BatchQueryUseCase) GetByID(ctx context.Context, id uint) (*model.Batch, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *BatchQueryUseCase) GetByBatchNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	return uc.repo.GetByBatchNumber(ctx, batchNumber)
}

func (uc *BatchQueryUseCase) GetByStatus(ctx context.Context, status model.BatchStatus, limit int) ([]model.Batch, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return uc.repo.GetByStatus(ctx, status, limit)
}

func (uc *BatchQueryUseCase) GetByDateRange(ctx context.Context, from, to time.Time) ([]model.Batch, error) {
	return uc.repo.GetBatchesByDateRange(ctx, from, to)
}
