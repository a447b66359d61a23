package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"gorm.io/gorm"
)

// TransactionRepository is the persistence contract for one scheme's
// transactions. A single row create/update is atomic; nothing here spans
// rows transactionally.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*model.Transaction, error)
	Save(ctx context.Context, txn *model.Transaction) error
	Update(ctx context.Context, txn *model.Transaction) error
	GetByCustomerID(ctx context.Context, customerID string, limit int) ([]model.Transaction, error)
	GetByStatus(ctx context.Context, status model.TransactionStatus, limit int) ([]model.Transaction, error)
	GetByBatchNumber(ctx context.Context, batchNumber string) ([]model.Transaction, error)

	// ExistsDuplicate is the creation-time idempotency predicate: same
	// reference, source, destination and amount.
	ExistsDuplicate(ctx context.Context, reference, senderAccount, beneficiaryAccount string, amount decimal.Decimal) (bool, error)

	// SumAmountForCustomerOnDate feeds the daily cumulative limit check.
	// Failed and returned transactions do not count against the ceiling.
	SumAmountForCustomerOnDate(ctx context.Context, customerID string, day time.Time) (decimal.Decimal, error)
}

type gormTransactionRepository struct {
	db    *gorm.DB
	table string
}

func NewTransactionRepository(db *gorm.DB, scheme model.Scheme) TransactionRepository {
	return &gormTransactionRepository{db: db, table: scheme.TransactionTable()}
}

func (r *gormTransactionRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

func (r *gormTransactionRepository) GetByID(ctx context.Context, id uint) (*model.Transaction, error) {
	txn := &model.Transaction{}
	res := r.scoped(ctx).First(txn, id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, &apperrors.NotFoundError{Entity: "transaction", ID: fmt.Sprint(id)}
	} else if res.Error != nil {
		return nil, res.Error
	}
	return txn, nil
}

func (r *gormTransactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	txn := &model.Transaction{}
	res := r.scoped(ctx).Where("transaction_reference = ?", reference).First(txn)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, &apperrors.NotFoundError{Entity: "transaction", ID: reference}
	} else if res.Error != nil {
		return nil, res.Error
	}
	return txn, nil
}

func (r *gormTransactionRepository) Save(ctx context.Context, txn *model.Transaction) error {
	return r.scoped(ctx).Create(txn).Error
}

func (r *gormTransactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	return r.scoped(ctx).Save(txn).Error
}

func (r *gormTransactionRepository) GetByCustomerID(ctx context.Context, customerID string, limit int) ([]model.Transaction, error) {
	var txns []model.Transaction
	res := r.scoped(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns)
	return txns, res.Error
}

func (r *gormTransactionRepository) GetByStatus(ctx context.Context, status model.TransactionStatus, limit int) ([]model.Transaction, error) {
	var txns []model.Transaction
	res := r.scoped(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns)
	return txns, res.Error
}

func (r *gormTransactionRepository) GetByBatchNumber(ctx context.Context, batchNumber string) ([]model.Transaction, error) {
	var txns []model.Transaction
	res := r.scoped(ctx).
		Where("batch_number = ?", batchNumber).
		Order("id ASC").
		Find(&txns)
	return txns, res.Error
}

func (r *gormTransactionRepository) ExistsDuplicate(ctx context.Context, reference, senderAccount, beneficiaryAccount string, amount decimal.Decimal) (bool, error) {
	var count int64
	res := r.scoped(ctx).
		Where("transaction_reference = ?", reference).
		Where("sender_account_number = ?", senderAccount).
		Where("beneficiary_account_number = ?", beneficiaryAccount).
		Where("amount = ?", amount).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (r *gormTransactionRepository) SumAmountForCustomerOnDate(ctx context.Context, customerID string, day time.Time) (decimal.Decimal, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var raw string
	row := r.scoped(ctx).
		Select("COALESCE(SUM(amount), 0)").
		Where("customer_id = ?", customerID).
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status NOT IN ?", []model.TransactionStatus{model.TXN_FAILED, model.TXN_RETURNED}).
		Row()
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
