package service

import (
	"context"

	"github.com/trakkie-id/paymentrails/model"
)

// NotificationService is a best-effort outbound alert channel. Failures are
// logged by implementations and swallowed; nothing here ever reaches the
// caller's error path.
type NotificationService interface {
	NotifyTransactionCompleted(ctx context.Context, txn *model.Transaction)
	NotifyTransactionFailed(ctx context.Context, txn *model.Transaction, reason string)
	NotifyBatchCompleted(ctx context.Context, batch *model.Batch, successCount, failCount int)
}

// NoopNotifier is used when no notification channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyTransactionCompleted(ctx context.Context, txn *model.Transaction) {}

func (NoopNotifier) NotifyTransactionFailed(ctx context.Context, txn *model.Transaction, reason string) {
}

func (NoopNotifier) NotifyBatchCompleted(ctx context.Context, batch *model.Batch, successCount, failCount int) {
}
