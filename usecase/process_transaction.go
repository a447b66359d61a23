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

// ProcessTransactionUseCase exclusively owns status advancement for single
// instructions: state guard, revalidation, the gateway call and applying the
// outcome. Callers must serialize processing calls per transaction id; the
// state guard alone does not arbitrate concurrent attempts.
type ProcessTransactionUseCase struct {
	repo      repository.TransactionRepository
	validator *service.ValidationService
	rbi       gateway.RBIGateway
	audit     service.AuditLogger
	notifier  service.NotificationService
	logger    *logger.Logger
}

func NewProcessTransactionUseCase(
	repo repository.TransactionRepository,
	validator *service.ValidationService,
	rbi gateway.RBIGateway,
	audit service.AuditLogger,
	notifier service.NotificationService,
	log *logger.Logger,
) *ProcessTransactionUseCase {
	return &ProcessTransactionUseCase{
		repo:      repo,
		validator: validator,
		rbi:       rbi,
		audit:     audit,
		notifier:  notifier,
		logger:    log,
	}
}

func (uc *ProcessTransactionUseCase) Execute(ctx context.Context, id uint) (*model.Transaction, error) {
	txn, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &apperrors.SystemError{Cause: err}
	}

	// Idempotent against duplicate processing triggers: anything already
	// past VALIDATED is returned as is, without touching the gateway.
	if txn.Status != model.TXN_INITIATED && txn.Status != model.TXN_VALIDATED {
		uc.logger.Infof("skipping processing, reference: %s already in state %s", txn.TransactionReference, txn.Status)
		return txn, nil
	}

	if err := uc.validator.Validate(ctx, txn); err != nil {
		var validation *apperrors.ValidationError
		var limit *apperrors.LimitExceededError
		if errors.As(err, &validation) || errors.As(err, &limit) {
			uc.failTransaction(ctx, txn, err.Error())
			return txn, err
		}
		return nil, err
	}

	if txn.Status == model.TXN_INITIATED {
		prev := txn.Status
		if err := txn.MarkValidated(); err != nil {
			return nil, err
		}
		if err := uc.repo.Update(ctx, txn); err != nil {
			return nil, &apperrors.SystemError{Cause: err}
		}
		uc.audit.LogTransactionUpdated(ctx, txn, prev)
	}

	// PROCESSING immediately before the network call.
	prev := txn.Status
	if err := txn.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, txn); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	uc.audit.LogTransactionUpdated(ctx, txn, prev)

	updated, err := uc.rbi.SubmitTransaction(ctx, txn)
	if err != nil {
		uc.failTransaction(ctx, txn, classifyGatewayError(err))
		return txn, err
	}

	prev = txn.Status
	txn.Status = updated.Status
	txn.UTRNumber = updated.UTRNumber
	txn.ProcessedAt = updated.ProcessedAt
	txn.CompletedAt = updated.CompletedAt
	if err := uc.repo.Update(ctx, txn); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	uc.audit.LogTransactionUpdated(ctx, txn, prev)

	if txn.Status == model.TXN_COMPLETED {
		uc.notifier.NotifyTransactionCompleted(ctx, txn)
	}

	uc.logger.Infof("transaction processed, reference: %s, status: %s, utr: %s", txn.TransactionReference, txn.Status, txn.UTRNumber)
	return txn, nil
}

func (uc *ProcessTransactionUseCase) failTransaction(ctx context.Context, txn *model.Transaction, message string) {
	prev := txn.Status
	if err := txn.Fail(message); err != nil {
		uc.logger.Errorf("could not fail transaction, reference: %s, err: %+v", txn.TransactionReference, err)
		return
	}
	if err := uc.repo.Update(ctx, txn); err != nil {
		uc.logger.Errorf("could not persist failed transaction, reference: %s, err: %+v", txn.TransactionReference, err)
		return
	}
	uc.audit.LogTransactionUpdated(ctx, txn, prev)
	uc.notifier.NotifyTransactionFailed(ctx, txn, message)
}

// classifyGatewayError keeps infrastructure failures distinguishable from
// rejections in the persisted error message, so operators can decide whether
// a manual resubmission is safe.
func classifyGatewayError(err error) string {
	if apperrors.IsGatewayInfrastructure(err) {
		return "gateway unreachable: " + err.Error()
	}
	return err.Error()
}
