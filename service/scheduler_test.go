package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
)

type stubBatchRepository struct {
	batches map[string]*model.Batch
	saves   int
	updates int
}

func newStubBatchRepository() *stubBatchRepository {
	return &stubBatchRepository{batches: map[string]*model.Batch{}}
}

func (s *stubBatchRepository) GetByID(ctx context.Context, id uint) (*model.Batch, error) {
	for _, b := range s.batches {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "batch", ID: "?"}
}

func (s *stubBatchRepository) GetByBatchNumber(ctx context.Context, batchNumber string) (*model.Batch, error) {
	if b, ok := s.batches[batchNumber]; ok {
		return b, nil
	}
	return nil, &apperrors.NotFoundError{Entity: "batch", ID: batchNumber}
}

func (s *stubBatchRepository) Save(ctx context.Context, batch *model.Batch) error {
	s.saves++
	batch.ID = uint(len(s.batches) + 1)
	s.batches[batch.BatchNumber] = batch
	return nil
}

func (s *stubBatchRepository) Update(ctx context.Context, batch *model.Batch) error {
	s.updates++
	s.batches[batch.BatchNumber] = batch
	return nil
}

func (s *stubBatchRepository) GetByStatus(ctx context.Context, status model.BatchStatus, limit int) ([]model.Batch, error) {
	return nil, nil
}

func (s *stubBatchRepository) GetBatchesByDateRange(ctx context.Context, from, to time.Time) ([]model.Batch, error) {
	return nil, nil
}

func mustCutoffs(t *testing.T, raw []string) []Cutoff {
	t.Helper()
	cutoffs, err := ParseCutoffs(raw)
	if err != nil {
		t.Fatal(err)
	}
	return cutoffs
}

func TestParseCutoffsRejectsGarbage(t *testing.T) {
	for _, raw := range [][]string{nil, {"25:00"}, {"10:61"}, {"1030"}, {"aa:bb"}} {
		if _, err := ParseCutoffs(raw); err == nil {
			t.Fatalf("expected error for %v", raw)
		}
	}
}

func TestNextCutoffPicksFirstWindowAfterHold(t *testing.T) {
	s := NewBatchScheduler(model.SCHEME_NEFT, mustCutoffs(t, []string{"00:30", "10:30", "13:30", "16:30"}), 10, newStubBatchRepository(), testLogger(t))

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	got := s.NextCutoff(now)
	want := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextCutoffHoldPushesToLaterWindow(t *testing.T) {
	s := NewBatchScheduler(model.SCHEME_NEFT, mustCutoffs(t, []string{"00:30", "10:30", "13:30", "16:30"}), 10, newStubBatchRepository(), testLogger(t))

	// 10:25 plus a 10 minute hold is past the 10:30 cutoff.
	now := time.Date(2026, 8, 24, 10, 25, 0, 0, time.UTC)
	got := s.NextCutoff(now)
	want := time.Date(2026, 8, 24, 13, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextCutoffWrapsToNextDay(t *testing.T) {
	s := NewBatchScheduler(model.SCHEME_NEFT, mustCutoffs(t, []string{"00:30", "10:30", "13:30", "16:30"}), 10, newStubBatchRepository(), testLogger(t))

	now := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)
	got := s.NextCutoff(now)
	want := time.Date(2026, 8, 25, 0, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAssignToBatchOpensWindowOnce(t *testing.T) {
	repo := newStubBatchRepository()
	s := NewBatchScheduler(model.SCHEME_NEFT, mustCutoffs(t, []string{"00:30", "10:30", "13:30", "16:30"}), 10, repo, testLogger(t))

	first := &model.Transaction{Amount: decimal.NewFromInt(1000)}
	first.ID = 1
	second := &model.Transaction{Amount: decimal.NewFromInt(2000)}
	second.ID = 2

	batch1, err := s.AssignToBatch(context.Background(), first)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	batch2, err := s.AssignToBatch(context.Background(), second)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if repo.saves != 1 {
		t.Fatalf("expected the window batch to be created once, got %d creates", repo.saves)
	}
	if batch1.BatchNumber != batch2.BatchNumber {
		t.Fatal("both transactions must land in the same window batch")
	}
	if batch2.TotalTransactions != 2 {
		t.Fatalf("expected 2 members, got %d", batch2.TotalTransactions)
	}
	if first.BatchNumber == "" || second.BatchNumber == "" {
		t.Fatal("assignment must set the transaction batch number")
	}
	if !batch2.TotalAmount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected aggregate 3000, got %s", batch2.TotalAmount)
	}
}

func TestBatchNumberDerivedFromCutoff(t *testing.T) {
	s := NewBatchScheduler(model.SCHEME_NEFT, mustCutoffs(t, []string{"10:30"}), 0, newStubBatchRepository(), testLogger(t))
	cutoff := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)
	if got := s.BatchNumberFor(cutoff); got != "NEFT-20260824-1030" {
		t.Fatalf("unexpected batch number %s", got)
	}
}
