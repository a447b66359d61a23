package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

var (
	TXN_INITIATED  TransactionStatus = "INITIATED"
	TXN_VALIDATED  TransactionStatus = "VALIDATED"
	TXN_PROCESSING TransactionStatus = "PROCESSING"
	TXN_PENDING    TransactionStatus = "PENDING"
	TXN_COMPLETED  TransactionStatus = "COMPLETED"
	TXN_FAILED     TransactionStatus = "FAILED"
	TXN_RETURNED   TransactionStatus = "RETURNED"
)

// PaymentDetails is immutable once the transaction is created.
type PaymentDetails struct {
	SenderAccountNumber      string `json:"sender_account_number"`
	SenderIFSC               string `json:"sender_ifsc"`
	SenderAccountType        string `json:"sender_account_type"`
	SenderName               string `json:"sender_name"`
	BeneficiaryAccountNumber string `json:"beneficiary_account_number"`
	BeneficiaryIFSC          string `json:"beneficiary_ifsc"`
	BeneficiaryAccountType   string `json:"beneficiary_account_type"`
	BeneficiaryName          string `json:"beneficiary_name"`
	PaymentReference         string `json:"payment_reference"`
	Remarks                  string `json:"remarks"`
}

type Transaction struct {
	gorm.Model

	TransactionReference string `gorm:"index:idx_txn_reference"`

	Scheme Scheme

	PaymentDetails PaymentDetails `gorm:"embedded"`

	Amount decimal.Decimal `gorm:"type:decimal(20,4)"`

	Status TransactionStatus `gorm:"index:idx_txn_status"`

	UTRNumber string

	BatchNumber string `gorm:"index:idx_txn_batch"`

	ReturnReason string

	ErrorMessage string

	CustomerID string `gorm:"index:idx_txn_customer"`

	Metadata datatypes.JSON

	ProcessedAt *time.Time

	CompletedAt *time.Time
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == TXN_COMPLETED || t.Status == TXN_FAILED || t.Status == TXN_RETURNED
}

func (t *Transaction) invalidTransition(op string) error {
	return &apperrors.InvalidStateError{
		Entity:    "transaction",
		Current:   string(t.Status),
		Operation: op,
	}
}

func (t *Transaction) MarkValidated() error {
	if t.Status != TXN_INITIATED {
		return t.invalidTransition("validate")
	}
	t.Status = TXN_VALIDATED
	return nil
}

func (t *Transaction) MarkProcessing() error {
	if t.Status != TXN_VALIDATED {
		return t.invalidTransition("process")
	}
	t.Status = TXN_PROCESSING
	now := time.Now()
	t.ProcessedAt = &now
	return nil
}

// MarkPending records a successful RBI acknowledgment with asynchronous
// settlement. The UTR is already assigned at acknowledgment time.
func (t *Transaction) MarkPending(utr string) error {
	if t.Status != TXN_PROCESSING {
		return t.invalidTransition("hold pending")
	}
	t.Status = TXN_PENDING
	t.UTRNumber = utr
	return nil
}

func (t *Transaction) Complete(utr string) error {
	if t.Status != TXN_PROCESSING && t.Status != TXN_PENDING {
		return t.invalidTransition("complete")
	}
	t.Status = TXN_COMPLETED
	if utr != "" {
		t.UTRNumber = utr
	}
	now := time.Now()
	t.CompletedAt = &now
	if t.ProcessedAt == nil {
		t.ProcessedAt = &now
	}
	return nil
}

func (t *Transaction) Fail(message string) error {
	if t.IsTerminal() {
		return t.invalidTransition("fail")
	}
	t.Status = TXN_FAILED
	t.ErrorMessage = message
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

// Return records an out-of-band reversal reported by RBI after acceptance.
func (t *Transaction) Return(reason string) error {
	if t.Status != TXN_PROCESSING && t.Status != TXN_PENDING {
		return t.invalidTransition("return")
	}
	t.Status = TXN_RETURNED
	t.ReturnReason = reason
	now := time.Now()
	t.CompletedAt = &now
	return nil
}
