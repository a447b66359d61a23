package usecase

import (
	"context"
	"encoding/json"

	"github.com/apsdehal/go-logger"
	"github.com/hashicorp/go-uuid"
	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/repository"
	"github.com/trakkie-id/paymentrails/service"
	"gorm.io/datatypes"
)

type CreateTransactionInput struct {
	TransactionReference string
	CustomerID           string
	PaymentDetails       model.PaymentDetails
	Amount               decimal.Decimal
	Metadata             map[string]string
}

// CreateTransactionUseCase exclusively owns transaction construction:
// reference generation, validation, the duplicate guard and the INITIATED
// persist. For batch-settled schemes it also hands the new transaction to
// the scheduler for window assignment.
type CreateTransactionUseCase struct {
	scheme    model.Scheme
	repo      repository.TransactionRepository
	validator *service.ValidationService
	scheduler *service.BatchScheduler
	audit     service.AuditLogger
	logger    *logger.Logger
}

func NewCreateTransactionUseCase(
	scheme model.Scheme,
	repo repository.TransactionRepository,
	validator *service.ValidationService,
	scheduler *service.BatchScheduler,
	audit service.AuditLogger,
	log *logger.Logger,
) *CreateTransactionUseCase {
	return &CreateTransactionUseCase{
		scheme:    scheme,
		repo:      repo,
		validator: validator,
		scheduler: scheduler,
		audit:     audit,
		logger:    log,
	}
}

func (uc *CreateTransactionUseCase) Execute(ctx context.Context, input CreateTransactionInput) (*model.Transaction, error) {
	reference := input.TransactionReference
	if reference == "" {
		uniqId, err := uuid.GenerateUUID()
		if err != nil {
			return nil, &apperrors.SystemError{Cause: err}
		}
		reference = string(uc.scheme) + "-" + uniqId
	}

	txn := &model.Transaction{
		TransactionReference: reference,
		Scheme:               uc.scheme,
		PaymentDetails:       input.PaymentDetails,
		Amount:               input.Amount,
		Status:               model.TXN_INITIATED,
		CustomerID:           input.CustomerID,
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, &apperrors.SystemError{Cause: err}
		}
		txn.Metadata = datatypes.JSON(raw)
	}

	if err := uc.validator.Validate(ctx, txn); err != nil {
		return nil, err
	}

	exists, err := uc.repo.ExistsDuplicate(ctx, reference, input.PaymentDetails.SenderAccountNumber, input.PaymentDetails.BeneficiaryAccountNumber, input.Amount)
	if err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	if exists {
		return nil, &apperrors.DuplicateTransactionError{Reference: reference}
	}

	if err := uc.repo.Save(ctx, txn); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}

	// NEFT settles in cutoff windows; RTGS goes out per instruction and
	// carries no scheduler. A failed window assignment leaves the
	// transaction ungrouped rather than failing the creation.
	if uc.scheduler != nil {
		if _, err := uc.scheduler.AssignToBatch(ctx, txn); err != nil {
			uc.logger.Errorf("batch assignment failed, reference: %s, err: %+v", reference, err)
		} else if err := uc.repo.Update(ctx, txn); err != nil {
			uc.logger.Errorf("failed to persist batch number, reference: %s, err: %+v", reference, err)
		}
	}

	uc.audit.LogTransactionCreated(ctx, txn)

	uc.logger.Infof("%s transaction created, reference: %s, amount: %s", uc.scheme, reference, input.Amount)
	return txn, nil
}
