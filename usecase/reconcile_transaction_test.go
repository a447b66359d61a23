package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/gateway"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/usecase"
)

func seedPending(repo *fakeTransactionRepository) *model.Transaction {
	txn := seedInitiated(repo)
	pending := *txn
	_ = pending.MarkValidated()
	_ = pending.MarkProcessing()
	_ = pending.MarkPending("UTR99")
	_ = repo.Update(context.Background(), &pending)
	return &pending
}

func newReconcileUseCase(t *testing.T, repo *fakeTransactionRepository, gw *fakeGateway, notifier *fakeNotifier) *usecase.ReconcileTransactionUseCase {
	t.Helper()
	return usecase.NewReconcileTransactionUseCase(repo, gw, &fakeAuditLogger{}, notifier, testLogger(t))
}

func TestReconcileSettlesPendingTransaction(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedPending(repo)
	gw := &fakeGateway{statusReport: &gateway.TransactionStatusReport{
		UTRNumber: "UTR99",
		Status:    string(model.TXN_COMPLETED),
	}}
	notifier := &fakeNotifier{}
	uc := newReconcileUseCase(t, repo, gw, notifier)

	txn, err := uc.Execute(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if txn.Status != model.TXN_COMPLETED || txn.UTRNumber != "UTR99" {
		t.Fatalf("expected settled transaction, got %s (utr %q)", txn.Status, txn.UTRNumber)
	}
	if gw.statusCalls != 1 {
		t.Fatalf("expected one status inquiry, got %d", gw.statusCalls)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].event != "completed" {
		t.Fatalf("expected a completion notification, got %+v", notifier.sent)
	}

	persisted, _ := repo.GetByID(context.Background(), seeded.ID)
	if persisted.Status != model.TXN_COMPLETED {
		t.Fatal("reconciled settlement must be persisted")
	}
}

func TestReconcileReturnsPendingTransaction(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedPending(repo)
	gw := &fakeGateway{statusReport: &gateway.TransactionStatusReport{
		UTRNumber: "UTR99",
		Status:    string(model.TXN_RETURNED),
		Reason:    "beneficiary account closed",
	}}
	notifier := &fakeNotifier{}
	uc := newReconcileUseCase(t, repo, gw, notifier)

	txn, err := uc.Execute(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if txn.Status != model.TXN_RETURNED {
		t.Fatalf("expected RETURNED, got %s", txn.Status)
	}
	if txn.ReturnReason != "beneficiary account closed" {
		t.Fatalf("expected the rbi return reason, got %q", txn.ReturnReason)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].event != "failed" {
		t.Fatalf("expected a failure notification, got %+v", notifier.sent)
	}
}

func TestReconcileLeavesUnsettledTransactionPending(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedPending(repo)
	gw := &fakeGateway{statusReport: &gateway.TransactionStatusReport{
		UTRNumber: "UTR99",
		Status:    string(model.TXN_PENDING),
	}}
	uc := newReconcileUseCase(t, repo, gw, &fakeNotifier{})

	txn, err := uc.Execute(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if txn.Status != model.TXN_PENDING {
		t.Fatalf("expected PENDING unchanged, got %s", txn.Status)
	}
	if repo.updates != 1 {
		t.Fatalf("an unsettled inquiry must not rewrite the row, got %d updates", repo.updates)
	}
}

func TestReconcileGuardsNonPending(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedInitiated(repo)
	gw := &fakeGateway{}
	uc := newReconcileUseCase(t, repo, gw, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), seeded.ID)
	var invalid *apperrors.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if gw.statusCalls != 0 {
		t.Fatal("a non-pending transaction must not reach the gateway")
	}
}

func TestReconcileGatewayFailurePassesThrough(t *testing.T) {
	repo := newFakeTransactionRepository()
	seeded := seedPending(repo)
	gw := &fakeGateway{statusReportErr: &apperrors.GatewayTimeoutError{Cause: context.DeadlineExceeded}}
	uc := newReconcileUseCase(t, repo, gw, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), seeded.ID)
	if !apperrors.IsGatewayInfrastructure(err) {
		t.Fatalf("expected an infrastructure error, got %v", err)
	}

	persisted, _ := repo.GetByID(context.Background(), seeded.ID)
	if persisted.Status != model.TXN_PENDING {
		t.Fatal("a failed inquiry must leave the transaction pending")
	}
}
