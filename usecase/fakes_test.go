package usecase_test

import (
	"context"
	"fmt"
	"io/ioutil"
	"testing"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/gateway"
	"github.com/trakkie-id/paymentrails/model"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("TEST", 0, ioutil.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

type fakeTransactionRepository struct {
	byID      map[uint]*model.Transaction
	nextID    uint
	saves     int
	updates   int
	duplicate bool
	saveErr   error
	updateErr error
	dailySum  decimal.Decimal
}

func newFakeTransactionRepository() *fakeTransactionRepository {
	return &fakeTransactionRepository{byID: map[uint]*model.Transaction{}}
}

func (f *fakeTransactionRepository) GetByID(ctx context.Context, id uint) (*model.Transaction, error) {
	if txn, ok := f.byID[id]; ok {
		copied := *txn
		return &copied, nil
	}
	return nil, &apperrors.NotFoundError{Entity: "transaction", ID: fmt.Sprint(id)}
}

func (f *fakeTransactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	for _, txn := range f.byID {
		if txn.TransactionReference == reference {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "transaction", ID: reference}
}

func (f *fakeTransactionRepository) Save(ctx context.Context, txn *model.Transaction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.nextID++
	txn.ID = f.nextID
	copied := *txn
	f.byID[txn.ID] = &copied
	return nil
}

func (f *fakeTransactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	copied := *txn
	f.byID[txn.ID] = &copied
	return nil
}

func (f *fakeTransactionRepository) GetByCustomerID(ctx context.Context, customerID string, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range f.byID {
		if txn.CustomerID == customerID && len(out) < limit {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepository) GetByStatus(ctx context.Context, status model.TransactionStatus, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range f.byID {
		if txn.Status == status && len(out) < limit {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepository) GetByBatchNumber(ctx context.Context, batchNumber string) ([]model.Transaction, error) {
	var out []model.Transaction
	for id := uint(1); id <= f.nextID; id++ {
		if txn, ok := f.byID[id]; ok && txn.BatchNumber == batchNumber {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepository) ExistsDuplicate(ctx context.Context, reference, senderAccount, beneficiaryAccount string, amount decimal.Decimal) (bool, error) {
	return f.duplicate, nil
}

func (f *fakeTransactionRepository) SumAmountForCustomerOnDate(ctx context.Context, customerID string, day time.Time) (decimal.Decimal, error) {
	return f.dailySum, nil
}

type fakeBatchRepository struct {
	byNumber map[string]*model.Batch
	nextID   uint
}

func newFakeBatchRepository() *fakeBatchRepository {
	return &fakeBatchRepository{byNumber: map[string]*model.Batch{}}
}

func (f *fakeBatchRepository) GetByID(ctx context.Context, id uint) (*model.Batch, error) {
	for _, b := range f.byNumber {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "batch", ID: fmt.Sprint(id)}
}

func (f *fakeBatchRepository) GetByBatchNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	if b, ok := f.byNumber[batchNumber]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, &apperrors.NotFoundError{Entity: "batch", ID: batchNumber}
}

func (f *fakeBatchRepository) Save(ctx context.Context, batch *model.Batch) error {
	f.nextID++
	batch.ID = f.nextID
	copied := *batch
	f.byNumber[batch.BatchNumber] = &copied
	return nil
}

func (f *fakeBatchRepository) Update(ctx context.Context, batch *model.Batch) error {
	copied := *batch
	f.byNumber[batch.BatchNumber] = &copied
	return nil
}

func (f *fakeBatchRepository) GetByStatus(ctx context.Context, status model.BatchStatus, limit int) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range f.byNumber {
		if b.Status == status && len(out) < limit {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepository) GetBatchesByDateRange(ctx context.Context, from, to time.Time) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range f.byNumber {
		if !b.BatchTime.Before(from) && b.BatchTime.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeAuditLogger struct {
	created int
	updated int
}

func (f *fakeAuditLogger) LogTransactionCreated(ctx context.Context, txn *model.Transaction) bool {
	f.created++
	return true
}

func (f *fakeAuditLogger) LogTransactionUpdated(ctx context.Context, txn *model.Transaction, prev model.TransactionStatus) bool {
	f.updated++
	return true
}

func (f *fakeAuditLogger) LogBatchCreated(ctx context.Context, batch *model.Batch) bool {
	f.created++
	return true
}

func (f *fakeAuditLogger) LogBatchUpdated(ctx context.Context, batch *model.Batch, prev model.BatchStatus) bool {
	f.updated++
	return true
}

type notification struct {
	event     string
	reference string
	reason    string
	success   int
	failed    int
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) NotifyTransactionCompleted(ctx context.Context, txn *model.Transaction) {
	f.sent = append(f.sent, notification{event: "completed", reference: txn.TransactionReference})
}

func (f *fakeNotifier) NotifyTransactionFailed(ctx context.Context, txn *model.Transaction, reason string) {
	f.sent = append(f.sent, notification{event: "failed", reference: txn.TransactionReference, reason: reason})
}

func (f *fakeNotifier) NotifyBatchCompleted(ctx context.Context, batch *model.Batch, successCount, failCount int) {
	f.sent = append(f.sent, notification{event: "batch", reference: batch.BatchNumber, success: successCount, failed: failCount})
}

type fakeGateway struct {
	submitCalls      int
	batchCalls       int
	statusCalls      int
	submitErr        error
	pending          bool
	utr              string
	batchOutcomes    map[string]bool
	batchErr         error
	statusReport     *gateway.TransactionStatusReport
	statusReportErr  error
	lastSubmittedTxn *model.Transaction
}

func (f *fakeGateway) SubmitTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	f.submitCalls++
	f.lastSubmittedTxn = txn
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	updated := *txn
	utr := f.utr
	if utr == "" {
		utr = "UTR-FAKE-1"
	}
	if f.pending {
		if err := updated.MarkPending(utr); err != nil {
			return nil, err
		}
	} else {
		if err := updated.Complete(utr); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

func (f *fakeGateway) SubmitBatch(ctx context.Context, batch *model.Batch, txns []model.Transaction) (*model.Batch, []model.Transaction, error) {
	f.batchCalls++
	if f.batchErr != nil {
		return nil, nil, f.batchErr
	}
	updatedBatch := *batch
	if err := updatedBatch.MarkSubmitted(); err != nil {
		return nil, nil, err
	}
	updated := make([]model.Transaction, 0, len(txns))
	for i, txn := range txns {
		u := txn
		ok := true
		if f.batchOutcomes != nil {
			ok = f.batchOutcomes[txn.TransactionReference]
		}
		if ok {
			_ = u.Complete(fmt.Sprintf("UTR-FAKE-%d", i+1))
		} else {
			_ = u.Fail("rejected by rbi interface")
		}
		updated = append(updated, u)
	}
	return &updatedBatch, updated, nil
}

func (f *fakeGateway) CheckTransactionStatus(ctx context.Context, utrNumber string) (*gateway.TransactionStatusReport, error) {
	f.statusCalls++
	if f.statusReportErr != nil {
		return nil, f.statusReportErr
	}
	return f.statusReport, nil
}

func (f *fakeGateway) CheckBatchStatus(ctx context.Context, batchNumber string) (*gateway.BatchStatusReport, error) {
	return &gateway.BatchStatusReport{BatchNumber: batchNumber}, nil
}

func validPaymentDetails() model.PaymentDetails {
	return model.PaymentDetails{
		SenderAccountNumber:      "123456789012",
		SenderIFSC:               "HDFC0001234",
		SenderAccountType:        "SAVINGS",
		SenderName:               "Asha Rao",
		BeneficiaryAccountNumber: "987654321098",
		BeneficiaryIFSC:          "SBIN0005678",
		BeneficiaryAccountType:   "SAVINGS",
		BeneficiaryName:          "Vikram Shah",
		PaymentReference:         "invoice 42",
	}
}
