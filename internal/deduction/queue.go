// Package deduction runs stock and ingredient deduction for committed sales on
// background workers. Failed jobs are retried with backoff and dead-lettered.
package deduction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bakerypos/internal/logger"
	"bakerypos/internal/model"
	"bakerypos/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stages
const (
	StageStock       = "stock"
	StageIngredients = "ingredients"
)

var ErrQueueFull = errors.New("deduction queue is full")

type StockDeductor interface {
	DeductForSale(ctx context.Context, sale *model.Sale) service.DeductionResult
}

type IngredientDeductor interface {
	DeductIngredients(ctx context.Context, sale *model.Sale) error
}

type SaleStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateDeductionStatus(ctx context.Context, id uuid.UUID, status string) error
}

type FailureStore interface {
	Create(ctx context.Context, failure *model.DeductionFailure) error
	RecordRetry(ctx context.Context, id uuid.UUID, stage string, attempts int, lastError string) error
	MarkResolved(ctx context.Context, id uuid.UUID) error
}

type Config struct {
	Workers    int
	MaxRetries int
	QueueSize  int
	// Backoff returns the wait before retry n (1-based).
	Backoff func(n int) time.Duration
}

type job struct {
	saleID    uuid.UUID
	failureID *uuid.UUID
}

type Queue struct {
	cfg         Config
	jobs        chan job
	sales       SaleStore
	failures    FailureStore
	stock       StockDeductor
	ingredients IngredientDeductor
	wg          sync.WaitGroup
}

func NewQueue(cfg Config, sales SaleStore, failures FailureStore, stock StockDeductor, ingredients IngredientDeductor) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Backoff == nil {
		cfg.Backoff = ExponentialBackoff(500*time.Millisecond, 10*time.Second)
	}
	return &Queue{
		cfg:         cfg,
		jobs:        make(chan job, cfg.QueueSize),
		sales:       sales,
		failures:    failures,
		stock:       stock,
		ingredients: ingredients,
	}
}

// ExponentialBackoff doubles base per retry up to max.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(n int) time.Duration {
		d := base
		for i := 1; i < n; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		return d
	}
}

// Start launches the workers. They exit when ctx is cancelled; Wait blocks until they have.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-q.jobs:
					q.process(ctx, j)
				}
			}
		}(i)
	}
}

func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue schedules a sale without blocking checkout.
func (q *Queue) Enqueue(saleID uuid.UUID) error {
	return q.push(job{saleID: saleID})
}

// Replay re-runs a dead-lettered sale and resolves the failure on success.
func (q *Queue) Replay(saleID, failureID uuid.UUID) error {
	id := failureID
	return q.push(job{saleID: saleID, failureID: &id})
}

func (q *Queue) push(j job) error {
	select {
	case q.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) process(ctx context.Context, j job) {
	log := logger.Get().WithField("sale_id", j.saleID.String())

	sale, err := q.sales.FindByID(ctx, j.saleID)
	if err != nil {
		logger.LogError("deduction", "process", "load sale", j.saleID.String(), err)
		return
	}

	if stage, attempts, err := q.run(ctx, sale); err != nil {
		q.deadLetter(ctx, j, sale, stage, attempts, err)
		return
	}

	if err := q.sales.UpdateDeductionStatus(ctx, sale.ID, model.DeductionDone); err != nil {
		logger.LogError("deduction", "process", "mark sale done", sale.SaleNo, err)
	}
	if j.failureID != nil {
		if err := q.failures.MarkResolved(ctx, *j.failureID); err != nil {
			logger.LogError("deduction", "process", "resolve failure", j.failureID.String(), err)
		}
	}
	log.WithField("sale_no", sale.SaleNo).Debug("deduction completed")
}

// run executes both stages with retries. Each stage is idempotent, so a retry
// only redoes what did not commit.
func (q *Queue) run(ctx context.Context, sale *model.Sale) (string, int, error) {
	stages := []struct {
		name string
		fn   func() error
	}{
		{StageStock, func() error { return q.stock.DeductForSale(ctx, sale).Err() }},
		{StageIngredients, func() error { return q.ingredients.DeductIngredients(ctx, sale) }},
	}

	for _, st := range stages {
		var err error
		attempt := 0
		for attempt < q.cfg.MaxRetries {
			attempt++
			if err = st.fn(); err == nil {
				break
			}
			logger.Get().WithFields(logrus.Fields{
				"sale_no": sale.SaleNo,
				"stage":   st.name,
				"attempt": attempt,
			}).WithError(err).Warn("deduction attempt failed")

			if attempt < q.cfg.MaxRetries {
				select {
				case <-ctx.Done():
					return st.name, attempt, ctx.Err()
				case <-time.After(q.cfg.Backoff(attempt)):
				}
			}
		}
		if err != nil {
			return st.name, attempt, err
		}
	}
	return "", 0, nil
}

// deadLetter records the failure. A replayed job updates the failure it came
// from; a new row is written only when that one is gone or already resolved.
func (q *Queue) deadLetter(ctx context.Context, j job, sale *model.Sale, stage string, attempts int, cause error) {
	logger.LogError("deduction", "deadLetter", fmt.Sprintf("stage %s after %d attempts", stage, attempts), sale.SaleNo, cause)

	// The worker context may already be cancelled at shutdown.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	recorded := false
	if j.failureID != nil {
		err := q.failures.RecordRetry(writeCtx, *j.failureID, stage, attempts, cause.Error())
		if err == nil {
			recorded = true
		} else {
			logger.LogError("deduction", "deadLetter", "update dead letter", j.failureID.String(), err)
		}
	}
	if !recorded {
		failure := &model.DeductionFailure{
			SaleID:    sale.ID,
			Stage:     stage,
			Attempts:  attempts,
			LastError: cause.Error(),
		}
		if err := q.failures.Create(writeCtx, failure); err != nil {
			logger.LogError("deduction", "deadLetter", "write dead letter", sale.SaleNo, err)
		}
	}
	if err := q.sales.UpdateDeductionStatus(writeCtx, sale.ID, model.DeductionFailed); err != nil {
		logger.LogError("deduction", "deadLetter", "mark sale failed", sale.SaleNo, err)
	}
}

type PendingLister interface {
	ListByDeductionStatus(ctx context.Context, status string, limit int) ([]model.Sale, error)
}

// Requeue enqueues sales left pending by a previous run, up to the queue's
// free capacity. It returns how many were scheduled.
func (q *Queue) Requeue(ctx context.Context, pending PendingLister) (int, error) {
	sales, err := pending.ListByDeductionStatus(ctx, model.DeductionPending, cap(q.jobs)-len(q.jobs))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range sales {
		if err := q.Enqueue(s.ID); err != nil {
			break
		}
		n++
	}
	return n, nil
}
