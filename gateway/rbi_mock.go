package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
)

// MockConfig tunes the simulated settlement interface. SuccessRate is a
// probability in [0,1]; 1.0 settles everything immediately, 0.0 rejects
// everything.
type MockConfig struct {
	Latency     time.Duration
	SuccessRate float64
}

// MockGateway simulates the RBI interface for non-production profiles and
// tests. It holds no persisted state; every call returns updated copies.
type MockGateway struct {
	cfg    MockConfig
	logger *logger.Logger

	mu   sync.Mutex
	rand *rand.Rand
	seq  int
}

func NewMockGateway(cfg MockConfig, log *logger.Logger) *MockGateway {
	return &MockGateway{
		cfg:    cfg,
		logger: log,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *MockGateway) roll() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.Float64() < g.cfg.SuccessRate
}

func (g *MockGateway) nextUTR(scheme model.Scheme) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%sUTR%s%06d", scheme, time.Now().Format("20060102"), g.seq)
}

func (g *MockGateway) simulateLatency(ctx context.Context) error {
	if g.cfg.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(g.cfg.Latency):
		return nil
	case <-ctx.Done():
		return &apperrors.GatewayTimeoutError{Cause: ctx.Err()}
	}
}

func (g *MockGateway) SubmitTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}

	if !g.roll() {
		return nil, &apperrors.GatewayRejectionError{Code: 400, Message: "rejected by rbi interface (simulated)"}
	}

	updated := *txn
	if err := updated.Complete(g.nextUTR(txn.Scheme)); err != nil {
		return nil, err
	}
	g.logger.Debugf("[RBI MOCK] settled transaction, reference: %s, utr: %s", txn.TransactionReference, updated.UTRNumber)
	return &updated, nil
}

func (g *MockGateway) SubmitBatch(ctx context.Context, batch *model.Batch, txns []model.Transaction) (*model.Batch, []model.Transaction, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, nil, err
	}

	updatedBatch := *batch
	if err := updatedBatch.MarkSubmitted(); err != nil {
		return nil, nil, err
	}

	updatedTxns := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		updated := txn
		if g.roll() {
			_ = updated.Complete(g.nextUTR(txn.Scheme))
		} else {
			_ = updated.Fail("rejected by rbi interface (simulated)")
		}
		updatedTxns = append(updatedTxns, updated)
	}

	g.logger.Debugf("[RBI MOCK] submitted batch, number: %s, members: %d", batch.BatchNumber, len(txns))
	return &updatedBatch, updatedTxns, nil
}

func (g *MockGateway) CheckTransactionStatus(ctx context.Context, utrNumber string) (*TransactionStatusReport, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}
	return &TransactionStatusReport{
		UTRNumber: utrNumber,
		Status:    string(model.TXN_COMPLETED),
	}, nil
}

func (g *MockGateway) CheckBatchStatus(ctx context.Context, batchNumber string) (*BatchStatusReport, error) {
	if err := g.simulateLatency(ctx); err != nil {
		return nil, err
	}
	return &BatchStatusReport{
		BatchNumber: batchNumber,
		Status:      string(model.BATCH_COMPLETED),
	}, nil
}
