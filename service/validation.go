package service

import (
	"context"
	"regexp"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/repository"
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// SchemeLimits are deployment-time configuration. NEFT carries only a cap;
// RTGS carries a floor as well.
type SchemeLimits struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	// DailyCustomerLimit is the cumulative same-day ceiling per customer.
	// Zero disables the check.
	DailyCustomerLimit decimal.Decimal
}

// ValidationService is stateless. It checks instruction shape and the
// configured per-transaction and daily limits for one scheme.
type ValidationService struct {
	scheme model.Scheme
	limits SchemeLimits
	repo   repository.TransactionRepository
	logger *logger.Logger
}

func NewValidationService(scheme model.Scheme, limits SchemeLimits, repo repository.TransactionRepository, log *logger.Logger) *ValidationService {
	return &ValidationService{scheme: scheme, limits: limits, repo: repo, logger: log}
}

func (s *ValidationService) Validate(ctx context.Context, txn *model.Transaction) error {
	if err := s.validateFields(txn); err != nil {
		return err
	}
	if err := s.validateLimits(txn); err != nil {
		return err
	}
	if txn.CustomerID != "" {
		return s.validateDailyLimit(ctx, txn)
	}
	return nil
}

func (s *ValidationService) validateFields(txn *model.Transaction) error {
	d := txn.PaymentDetails

	required := []struct {
		field string
		value string
	}{
		{"sender_account_number", d.SenderAccountNumber},
		{"sender_ifsc", d.SenderIFSC},
		{"sender_name", d.SenderName},
		{"beneficiary_account_number", d.BeneficiaryAccountNumber},
		{"beneficiary_ifsc", d.BeneficiaryIFSC},
		{"beneficiary_name", d.BeneficiaryName},
	}
	for _, r := range required {
		if r.value == "" {
			return &apperrors.ValidationError{Field: r.field, Message: "required"}
		}
	}

	if !accountPattern.MatchString(d.SenderAccountNumber) {
		return &apperrors.ValidationError{Field: "sender_account_number", Message: "must be 9-18 digits"}
	}
	if !accountPattern.MatchString(d.BeneficiaryAccountNumber) {
		return &apperrors.ValidationError{Field: "beneficiary_account_number", Message: "must be 9-18 digits"}
	}
	if !ifscPattern.MatchString(d.SenderIFSC) {
		return &apperrors.ValidationError{Field: "sender_ifsc", Message: "malformed ifsc code"}
	}
	if !ifscPattern.MatchString(d.BeneficiaryIFSC) {
		return &apperrors.ValidationError{Field: "beneficiary_ifsc", Message: "malformed ifsc code"}
	}

	if !txn.Amount.IsPositive() {
		return &apperrors.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	return nil
}

func (s *ValidationService) validateLimits(txn *model.Transaction) error {
	if s.limits.MinAmount.IsPositive() && txn.Amount.LessThan(s.limits.MinAmount) {
		return &apperrors.LimitExceededError{
			Message: string(s.scheme) + " amount below minimum of " + s.limits.MinAmount.String(),
		}
	}
	if s.limits.MaxAmount.IsPositive() && txn.Amount.GreaterThan(s.limits.MaxAmount) {
		return &apperrors.LimitExceededError{
			Message: string(s.scheme) + " amount above maximum of " + s.limits.MaxAmount.String(),
		}
	}
	return nil
}

func (s *ValidationService) validateDailyLimit(ctx context.Context, txn *model.Transaction) error {
	if !s.limits.DailyCustomerLimit.IsPositive() {
		return nil
	}

	spent, err := s.repo.SumAmountForCustomerOnDate(ctx, txn.CustomerID, time.Now())
	if err != nil {
		return &apperrors.SystemError{Cause: err}
	}

	if spent.Add(txn.Amount).GreaterThan(s.limits.DailyCustomerLimit) {
		s.logger.Infof("daily limit breached, customer: %s, spent: %s, attempted: %s", txn.CustomerID, spent, txn.Amount)
		return &apperrors.LimitExceededError{
			Message: "daily cumulative limit of " + s.limits.DailyCustomerLimit.String() + " exceeded",
		}
	}
	return nil
}
