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

// ReconcileTransactionUseCase is the operator entry point for resolving a
// PENDING instruction whose settlement happened out of band. It is never
// invoked automatically.
type ReconcileTransactionUseCase struct {
	repo     repository.TransactionRepository
	rbi      gateway.RBIGateway
	audit    service.AuditLogger
	notifier service.NotificationService
	logger   *logger.Logger
}

func NewReconcileTransactionUseCase(
	repo repository.TransactionRepository,
	rbi gateway.RBIGateway,
	audit service.AuditLogger,
	notifier service.NotificationService,
	log *logger.Logger,
) *ReconcileTransactionUseCase {
	return &ReconcileTransactionUseCase{
		repo:     repo,
		rbi:      rbi,
		audit:    audit,
		notifier: notifier,
		logger:   log,
	}
}

func (uc *ReconcileTransactionUseCase) Execute(ctx context.Context, id uint) (*model.Transaction, error) {
	txn, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &apperrors.SystemError{Cause: err}
	}

	if txn.Status != model.TXN_PENDING {
		return nil, &apperrors.InvalidStateError{
			Entity:    "transaction",
			Current:   string(txn.Status),
			Operation: "reconcile",
		}
	}

	report, err := uc.rbi.CheckTransactionStatus(ctx, txn.UTRNumber)
	if err != nil {
		return nil, err
	}

	prev := txn.Status
	switch model.TransactionStatus(report.Status) {
	case model.TXN_COMPLETED:
		if err := txn.Complete(report.UTRNumber); err != nil {
			return nil, err
		}
	case model.TXN_RETURNED:
		if err := txn.Return(report.Reason); err != nil {
			return nil, err
		}
	default:
		uc.logger.Infof("reconciliation left transaction pending, reference: %s, rbi status: %s", txn.TransactionReference, report.Status)
		return txn, nil
	}

	if err := uc.repo.Update(ctx, txn); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	uc.audit.LogTransactionUpdated(ctx, txn, prev)

	if txn.Status == model.TXN_COMPLETED {
		uc.notifier.NotifyTransactionCompleted(ctx, txn)
	} else {
		uc.notifier.NotifyTransactionFailed(ctx, txn, txn.ReturnReason)
	}

	uc.logger.Infof("transaction reconciled, reference: %s, status: %s", txn.TransactionReference, txn.Status)
	return txn, nil
}
