package gateway

import (
	"context"

	"github.com/trakkie-id/paymentrails/model"
)

// TransactionStatusReport is what the settlement interface knows about one
// instruction when asked out of band.
type TransactionStatusReport struct {
	UTRNumber string            `json:"utr_number"`
	Status    string            `json:"status"`
	Reason    string            `json:"reason"`
	Details   map[string]string `json:"details"`
}

type BatchStatusReport struct {
	BatchNumber string `json:"batch_number"`
	Status      string `json:"status"`
	Completed   int    `json:"completed"`
	Failed      int    `json:"failed"`
}

// RBIGateway abstracts the national settlement interface. Implementations
// never mutate persisted state; they return updated copies and outcomes for
// the use cases to apply. Each call is made exactly once per processing
// attempt; there is no internal retry. Connectivity failures surface as
// apperrors.GatewayConnectivityError / GatewayTimeoutError, explicit
// rejections as apperrors.GatewayRejectionError.
type RBIGateway interface {
	SubmitTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	SubmitBatch(ctx context.Context, batch *model.Batch, txns []model.Transaction) (*model.Batch, []model.Transaction, error)
	CheckTransactionStatus(ctx context.Context, utrNumber string) (*TransactionStatusReport, error)
	CheckBatchStatus(ctx context.Context, batchNumber string) (*BatchStatusReport, error)
}
