package service

import (
	"context"
	"fmt"

	"github.com/apsdehal/go-logger"
	"github.com/trakkie-id/paymentrails/model"
	"gorm.io/gorm"
)

// AuditLogger records entity creation and status transitions. Every method
// reports whether the write landed; a failed audit write never rolls back
// the business operation that triggered it.
type AuditLogger interface {
	LogTransactionCreated(ctx context.Context, txn *model.Transaction) bool
	LogTransactionUpdated(ctx context.Context, txn *model.Transaction, previousStatus model.TransactionStatus) bool
	LogBatchCreated(ctx context.Context, batch *model.Batch) bool
	LogBatchUpdated(ctx context.Context, batch *model.Batch, previousStatus model.BatchStatus) bool
}

type AuditLogService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewAuditLogService(db *gorm.DB, log *logger.Logger) *AuditLogService {
	return &AuditLogService{db: db, logger: log}
}

func (s *AuditLogService) append(ctx context.Context, entry *model.AuditLog) bool {
	res := s.db.WithContext(ctx).Create(entry)
	if res.Error != nil {
		s.logger.Errorf("audit write failed, entity: %s/%d, action: %s, err: %+v", entry.EntityType, entry.EntityID, entry.Action, res.Error)
		return false
	}
	return true
}

func (s *AuditLogService) LogTransactionCreated(ctx context.Context, txn *model.Transaction) bool {
	return s.append(ctx, &model.AuditLog{
		EntityType:   model.AUDIT_ENTITY_TRANSACTION,
		EntityID:     txn.ID,
		Action:       model.AUDIT_CREATED,
		CurrentState: string(txn.Status),
		Details:      fmt.Sprintf("%s transaction created, reference: %s, amount: %s", txn.Scheme, txn.TransactionReference, txn.Amount),
	})
}

func (s *AuditLogService) LogTransactionUpdated(ctx context.Context, txn *model.Transaction, previousStatus model.TransactionStatus) bool {
	return s.append(ctx, &model.AuditLog{
		EntityType:    model.AUDIT_ENTITY_TRANSACTION,
		EntityID:      txn.ID,
		Action:        model.AUDIT_UPDATED,
		PreviousState: string(previousStatus),
		CurrentState:  string(txn.Status),
		Details:       fmt.Sprintf("%s transaction updated, reference: %s, utr: %s", txn.Scheme, txn.TransactionReference, txn.UTRNumber),
	})
}

func (s *AuditLogService) LogBatchCreated(ctx context.Context, batch *model.Batch) bool {
	return s.append(ctx, &model.AuditLog{
		EntityType:   model.AUDIT_ENTITY_BATCH,
		EntityID:     batch.ID,
		Action:       model.AUDIT_CREATED,
		CurrentState: string(batch.Status),
		Details:      fmt.Sprintf("%s batch created, number: %s", batch.Scheme, batch.BatchNumber),
	})
}

func (s *AuditLogService) LogBatchUpdated(ctx context.Context, batch *model.Batch, previousStatus model.BatchStatus) bool {
	return s.append(ctx, &model.AuditLog{
		EntityType:    model.AUDIT_ENTITY_BATCH,
		EntityID:      batch.ID,
		Action:        model.AUDIT_UPDATED,
		PreviousState: string(previousStatus),
		CurrentState:  string(batch.Status),
		Details:       fmt.Sprintf("%s batch updated, number: %s, completed: %d, failed: %d", batch.Scheme, batch.BatchNumber, batch.CompletedTransactions, batch.FailedTransactions),
	})
}
