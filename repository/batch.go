package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"gorm.io/gorm"
)

type BatchRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Batch, error)
	GetByBatchNumber(ctx context.Context, batchNumber string) (*model.Batch, error)
	Save(ctx context.Context, batch *model.Batch) error
	Update(ctx context.Context, batch *model.Batch) error
	GetByStatus(ctx context.Context, status model.BatchStatus, limit int) ([]model.Batch, error)
	GetBatchesByDateRange(ctx context.Context, from, to time.Time) ([]model.Batch, error)
}

type gormBatchRepository struct {
	db    *gorm.DB
	table string
}

func NewBatchRepository(db *gorm.DB, scheme model.Scheme) BatchRepository {
	return &gormBatchRepository{db: db, table: scheme.BatchTable()}
}

func (r *gormBatchRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.table)
}

func (r *gormBatchRepository) GetByID(ctx context.Context, id uint) (*model.Batch, error) {
	batch := &model.Batch{}
	res := r.scoped(ctx).First(batch, id)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, &apperrors.NotFoundError{Entity: "batch", ID: fmt.Sprint(id)}
	} else if res.Error != nil {
		return nil, res.Error
	}
	return batch, nil
}

func (r *gormBatchRepository) GetByBatchNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	batch := &model.Batch{}
	res := r.scoped(ctx).Where("batch_number = ?", batchNumber).First(batch)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, &apperrors.NotFoundError{Entity: "batch", ID: batchNumber}
	} else if res.Error != nil {
		return nil, res.Error
	}
	return batch, nil
}

func (r *gormBatchRepository) Save(ctx context.Context, batch *model.Batch) error {
	return r.scoped(ctx).Create(batch).Error
}

func (r *gormBatchRepository) Update(ctx context.Context, batch *model.Batch) error {
	return r.scoped(ctx).Save(batch).Error
}

func (r *gormBatchRepository) GetByStatus(ctx context.Context, status model.BatchStatus, limit int) ([]model.Batch, error) {
	var batches []model.Batch
	res := r.scoped(ctx).
		Where("status = ?", status).
		Order("batch_time ASC").
		Limit(limit).
		Find(&batches)
	return batches, res.Error
}

func (r *gormBatchRepository) GetBatchesByDateRange(ctx context.Context, from, to time.Time) ([]model.Batch, error) {
	var batches []model.Batch
	res := r.scoped(ctx).
		Where("batch_time >= ? AND batch_time < ?", from, to).
		Order("batch_time ASC").
		Find(&batches)
	return batches, res.Error
}
