package usecase

import (
	"context"
	"errors"

	"github.com/apsdehal/go-logger"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/gateway"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/repository"
	"github.com/trakkie-id/paymentrails/service"
)

// ProcessBatchUseCase submits one settlement batch to RBI once its cutoff
// window has closed and reconciles the per-member outcomes back into
// persisted state. The trigger is an external scheduler; this use case is a
// plain request/response operation.
type ProcessBatchUseCase struct {
	batchRepo repository.BatchRepository
	txnRepo   repository.TransactionRepository
	rbi       gateway.RBIGateway
	audit     service.AuditLogger
	notifier  service.NotificationService
	logger    *logger.Logger
}

func NewProcessBatchUseCase(
	batchRepo repository.BatchRepository,
	txnRepo repository.TransactionRepository,
	rbi gateway.RBIGateway,
	audit service.AuditLogger,
	notifier service.NotificationService,
	log *logger.Logger,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		batchRepo: batchRepo,
		txnRepo:   txnRepo,
		rbi:       rbi,
		audit:     audit,
		notifier:  notifier,
		logger:    log,
	}
}

func (uc *ProcessBatchUseCase) Execute(ctx context.Context, id uint) (*model.Batch, error) {
	batch, err := uc.batchRepo.GetByID(ctx, id)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &apperrors.SystemError{Cause: err}
	}

	if batch.Status != model.BATCH_PENDING {
		return nil, &apperrors.InvalidStateError{
			Entity:    "batch",
			Current:   string(batch.Status),
			Operation: "process",
		}
	}

	prev := batch.Status
	if err := batch.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := uc.batchRepo.Update(ctx, batch); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	uc.audit.LogBatchUpdated(ctx, batch, prev)

	members, err := uc.txnRepo.GetByBatchNumber(ctx, batch.BatchNumber)
	if err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}

	// Members still sitting in INITIATED/VALIDATED are advanced to
	// PROCESSING for submission; anything already terminal is counted
	// straight into the aggregates.
	submittable := make([]model.Transaction, 0, len(members))
	for i := range members {
		txn := members[i]
		if txn.IsTerminal() {
			uc.recordOutcome(ctx, batch, txn.Status == model.TXN_COMPLETED)
			continue
		}
		if txn.Status == model.TXN_INITIATED {
			if err := txn.MarkValidated(); err != nil {
				continue
			}
		}
		if err := txn.MarkProcessing(); err != nil {
			continue
		}
		submittable = append(submittable, txn)
	}

	updatedBatch, updatedTxns, err := uc.rbi.SubmitBatch(ctx, batch, submittable)
	if err != nil {
		// The whole submission never reached RBI. Every member fails the
		// same way a single instruction does on a dead gateway.
		uc.logger.Errorf("batch submit failed, number: %s, err: %+v", batch.BatchNumber, err)
		message := classifyGatewayError(err)
		for i := range submittable {
			txn := submittable[i]
			if failErr := txn.Fail(message); failErr != nil {
				continue
			}
			if updErr := uc.txnRepo.Update(ctx, &txn); updErr != nil {
				uc.logger.Errorf("could not persist failed member, reference: %s, err: %+v", txn.TransactionReference, updErr)
				continue
			}
			uc.recordOutcome(ctx, batch, false)
		}
		if updErr := uc.batchRepo.Update(ctx, batch); updErr != nil {
			uc.logger.Errorf("could not persist batch, number: %s, err: %+v", batch.BatchNumber, updErr)
		}
		return batch, err
	}

	batch.Status = updatedBatch.Status
	batch.SubmittedAt = updatedBatch.SubmittedAt

	for i := range updatedTxns {
		updated := updatedTxns[i]
		// Aggregates only count members whose outcome actually landed in
		// the store, so a partial persist failure keeps them honest.
		if err := uc.txnRepo.Update(ctx, &updated); err != nil {
			uc.logger.Errorf("could not persist member outcome, reference: %s, err: %+v", updated.TransactionReference, err)
			continue
		}
		uc.audit.LogTransactionUpdated(ctx, &updated, model.TXN_PROCESSING)
		uc.recordOutcome(ctx, batch, updated.Status == model.TXN_COMPLETED)
	}

	if err := uc.batchRepo.Update(ctx, batch); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	uc.audit.LogBatchUpdated(ctx, batch, model.BATCH_PROCESSING)

	if batch.IsTerminal() {
		uc.notifier.NotifyBatchCompleted(ctx, batch, batch.CompletedTransactions, batch.FailedTransactions)
	}

	uc.logger.Infof("batch processed, number: %s, status: %s, completed: %d, failed: %d",
		batch.BatchNumber, batch.Status, batch.CompletedTransactions, batch.FailedTransactions)
	return batch, nil
}

func (uc *ProcessBatchUseCase) recordOutcome(ctx context.Context, batch *model.Batch, success bool) {
	if err := batch.RecordTransactionResult(success); err != nil {
		uc.logger.Errorf("could not record member outcome, number: %s, err: %+v", batch.BatchNumber, err)
	}
}
