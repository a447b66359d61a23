package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BatchStatus string

var (
	BATCH_PENDING             BatchStatus = "PENDING"
	BATCH_PROCESSING          BatchStatus = "PROCESSING"
	BATCH_SUBMITTED           BatchStatus = "SUBMITTED"
	BATCH_COMPLETED           BatchStatus = "COMPLETED"
	BATCH_FAILED              BatchStatus = "FAILED"
	BATCH_PARTIALLY_COMPLETED BatchStatus = "PARTIALLY_COMPLETED"
)

type Batch struct {
	gorm.Model

	BatchNumber string `gorm:"index:idx_batch_number"`

	Scheme Scheme

	Status BatchStatus `gorm:"index:idx_batch_status"`

	// BatchTime is the scheduled cutoff this batch settles on.
	BatchTime time.Time

	TotalTransactions int

	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4)"`

	CompletedTransactions int

	FailedTransactions int

	// TransactionIDs is the ordered member list, serialized as a JSON array.
	TransactionIDs datatypes.JSON

	SubmittedAt *time.Time

	CompletedAt *time.Time
}

func NewBatch(scheme Scheme, batchNumber string, batchTime time.Time) *Batch {
	return &Batch{
		BatchNumber:    batchNumber,
		Scheme:         scheme,
		Status:         BATCH_PENDING,
		BatchTime:      batchTime,
		TotalAmount:    decimal.Zero,
		TransactionIDs: datatypes.JSON([]byte("[]")),
	}
}

func (b *Batch) IsTerminal() bool {
	return b.Status == BATCH_COMPLETED || b.Status == BATCH_FAILED || b.Status == BATCH_PARTIALLY_COMPLETED
}

// DisplayStatus renders the status in the vocabulary of the batch's scheme.
// RTGS reporting calls a freshly cut batch CREATED and a submitted one
// SENT_TO_RBI; the lifecycle is the same.
func (b *Batch) DisplayStatus() string {
	if b.Scheme != SCHEME_RTGS {
		return string(b.Status)
	}
	switch b.Status {
	case BATCH_PENDING:
		return "CREATED"
	case BATCH_SUBMITTED:
		return "SENT_TO_RBI"
	default:
		return string(b.Status)
	}
}

func (b *Batch) MemberIDs() []uint {
	var ids []uint
	if len(b.TransactionIDs) == 0 {
		return nil
	}
	if err := json.Unmarshal(b.TransactionIDs, &ids); err != nil {
		return nil
	}
	return ids
}

func (b *Batch) invalidTransition(op string) error {
	return &apperrors.InvalidStateError{
		Entity:    "batch",
		Current:   string(b.Status),
		Operation: op,
	}
}

// AddTransaction appends a member and bumps the aggregates. Adding an id
// that is already a member is a no-op.
func (b *Batch) AddTransaction(txnID uint, amount decimal.Decimal) error {
	if b.IsTerminal() {
		return b.invalidTransition("add transaction to")
	}
	ids := b.MemberIDs()
	for _, id := range ids {
		if id == txnID {
			return nil
		}
	}
	ids = append(ids, txnID)
	raw, err := json.Marshal(ids)
	if err != nil {
		return &apperrors.SystemError{Cause: err}
	}
	b.TransactionIDs = datatypes.JSON(raw)
	b.TotalTransactions++
	b.TotalAmount = b.TotalAmount.Add(amount)
	return nil
}

func (b *Batch) MarkProcessing() error {
	if b.Status != BATCH_PENDING {
		return b.invalidTransition("process")
	}
	b.Status = BATCH_PROCESSING
	return nil
}

func (b *Batch) MarkSubmitted() error {
	if b.Status != BATCH_PROCESSING {
		return b.invalidTransition("submit")
	}
	b.Status = BATCH_SUBMITTED
	now := time.Now()
	b.SubmittedAt = &now
	return nil
}

// RecordTransactionResult accumulates one member outcome. The moment
// completed+failed reaches the member count the terminal status is derived;
// it is never hand-set.
func (b *Batch) RecordTransactionResult(success bool) error {
	if b.CompletedTransactions+b.FailedTransactions >= b.TotalTransactions {
		return b.invalidTransition("record result on")
	}
	if success {
		b.CompletedTransactions++
	} else {
		b.FailedTransactions++
	}
	if b.CompletedTransactions+b.FailedTransactions == b.TotalTransactions {
		b.deriveTerminalStatus()
	}
	return nil
}

func (b *Batch) deriveTerminalStatus() {
	switch {
	case b.FailedTransactions == 0:
		b.Status = BATCH_COMPLETED
	case b.CompletedTransactions == 0:
		b.Status = BATCH_FAILED
	default:
		b.Status = BATCH_PARTIALLY_COMPLETED
	}
	now := time.Now()
	b.CompletedAt = &now
}
