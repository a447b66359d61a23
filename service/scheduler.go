package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/repository"
)

// Cutoff is one fixed daily settlement window boundary.
type Cutoff struct {
	Hour   int
	Minute int
}

func ParseCutoffs(raw []string) ([]Cutoff, error) {
	if len(raw) == 0 {
		return nil, errors.New("at least one batch cutoff time is required")
	}
	cutoffs := make([]Cutoff, 0, len(raw))
	for _, entry := range raw {
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed cutoff time %q", entry)
		}
		hour, err := strconv.Atoi(parts[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("malformed cutoff time %q", entry)
		}
		minute, err := strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("malformed cutoff time %q", entry)
		}
		cutoffs = append(cutoffs, Cutoff{Hour: hour, Minute: minute})
	}
	sort.Slice(cutoffs, func(i, j int) bool {
		if cutoffs[i].Hour != cutoffs[j].Hour {
			return cutoffs[i].Hour < cutoffs[j].Hour
		}
		return cutoffs[i].Minute < cutoffs[j].Minute
	})
	return cutoffs, nil
}

// BatchScheduler owns batch membership for one scheme: it decides which
// cutoff window an instruction settles on, cuts the window batch when it is
// first needed and accumulates members into it.
type BatchScheduler struct {
	scheme  model.Scheme
	cutoffs []Cutoff
	hold    time.Duration
	repo    repository.BatchRepository
	logger  *logger.Logger
}

func NewBatchScheduler(scheme model.Scheme, cutoffs []Cutoff, holdMinutes int, repo repository.BatchRepository, log *logger.Logger) *BatchScheduler {
	return &BatchScheduler{
		scheme:  scheme,
		cutoffs: cutoffs,
		hold:    time.Duration(holdMinutes) * time.Minute,
		repo:    repo,
		logger:  log,
	}
}

// NextCutoff is a pure function of now: the first configured cutoff strictly
// after now plus the hold period, wrapping to the first cutoff of the next
// day when the last window of today has closed.
func (s *BatchScheduler) NextCutoff(now time.Time) time.Time {
	effective := now.Add(s.hold)
	for _, c := range s.cutoffs {
		candidate := time.Date(effective.Year(), effective.Month(), effective.Day(), c.Hour, c.Minute, 0, 0, effective.Location())
		if candidate.After(effective) {
			return candidate
		}
	}
	first := s.cutoffs[0]
	tomorrow := effective.Add(24 * time.Hour)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.Hour, first.Minute, 0, 0, effective.Location())
}

func (s *BatchScheduler) BatchNumberFor(cutoff time.Time) string {
	return fmt.Sprintf("%s-%s", s.scheme, cutoff.Format("20060102-1504"))
}

// AssignToBatch places a persisted transaction into its cutoff window batch,
// creating the batch when the window opens. The transaction's batch number
// is set on the entity; persisting the transaction remains the caller's job.
func (s *BatchScheduler) AssignToBatch(ctx context.Context, txn *model.Transaction) (*model.Batch, error) {
	cutoff := s.NextCutoff(time.Now())
	batchNumber := s.BatchNumberFor(cutoff)

	batch, err := s.repo.GetByBatchNumber(ctx, batchNumber)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		batch = model.NewBatch(s.scheme, batchNumber, cutoff)
		if err := s.repo.Save(ctx, batch); err != nil {
			return nil, err
		}
		s.logger.Infof("opened %s batch window %s, cutoff: %s", s.scheme, batchNumber, cutoff.Format(time.RFC3339))
	}

	if err := batch.AddTransaction(txn.ID, txn.Amount); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, batch); err != nil {
		return nil, err
	}

	txn.BatchNumber = batch.BatchNumber
	return batch, nil
}
