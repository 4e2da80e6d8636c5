package deduction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bakerypos/internal/model"
	"bakerypos/internal/service"

	"github.com/google/uuid"
)

type memSales struct {
	mu     sync.Mutex
	sales  map[uuid.UUID]model.Sale
	status map[uuid.UUID]string
}

func newMemSales(sales ...model.Sale) *memSales {
	m := &memSales{sales: make(map[uuid.UUID]model.Sale), status: make(map[uuid.UUID]string)}
	for _, s := range sales {
		m.sales[s.ID] = s
		m.status[s.ID] = s.DeductionStatus
	}
	return m
}

func (m *memSales) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (m *memSales) UpdateDeductionStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = status
	return nil
}

func (m *memSales) ListByDeductionStatus(_ context.Context, status string, limit int) ([]model.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Sale
	for id, st := range m.status {
		if st == status && len(out) < limit {
			out = append(out, m.sales[id])
		}
	}
	return out, nil
}

func (m *memSales) statusOf(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

// memFailures treats the ids in open as unresolved failures.
type memFailures struct {
	mu       sync.Mutex
	open     map[uuid.UUID]bool
	created  []model.DeductionFailure
	retried  []model.DeductionFailure
	resolved []uuid.UUID
}

func (m *memFailures) Create(_ context.Context, f *model.DeductionFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New()
	m.created = append(m.created, *f)
	return nil
}

func (m *memFailures) RecordRetry(_ context.Context, id uuid.UUID, stage string, attempts int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open[id] {
		return errors.New("failure is not open")
	}
	m.retried = append(m.retried, model.DeductionFailure{ID: id, Stage: stage, Attempts: attempts, LastError: lastError})
	return nil
}

func (m *memFailures) MarkResolved(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, id)
	return nil
}

func (m *memFailures) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created), len(m.resolved)
}

// flakyStock fails the first failUntil calls.
type flakyStock struct {
	mu        sync.Mutex
	calls     int
	failUntil int
}

func (f *flakyStock) DeductForSale(context.Context, *model.Sale) service.DeductionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failUntil {
		return service.DeductionResult{Failures: []service.ProductFailure{{ProductID: "p", Error: "locked"}}}
	}
	return service.DeductionResult{Applied: 1}
}

func (f *flakyStock) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type okIngredients struct{}

func (okIngredients) DeductIngredients(context.Context, *model.Sale) error { return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func testConfig(retries int) Config {
	return Config{Workers: 2, MaxRetries: retries, QueueSize: 4, Backoff: func(int) time.Duration { return time.Millisecond }}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), SaleNo: "S-1", DeductionStatus: model.DeductionPending}
	sales := newMemSales(sale)
	failures := &memFailures{}
	stock := &flakyStock{failUntil: 2}

	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(testConfig(3), sales, failures, stock, okIngredients{})
	q.Start(ctx)

	if err := q.Enqueue(sale.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, func() bool { return sales.statusOf(sale.ID) == model.DeductionDone })
	cancel()
	q.Wait()

	if stock.callCount() != 3 {
		t.Fatalf("expected 3 attempts, got %d", stock.callCount())
	}
	if created, _ := failures.counts(); created != 0 {
		t.Fatalf("expected no dead letter, got %d", created)
	}
}

func TestQueueDeadLettersAfterMaxRetries(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), SaleNo: "S-2", DeductionStatus: model.DeductionPending}
	sales := newMemSales(sale)
	failures := &memFailures{}
	stock := &flakyStock{failUntil: 100}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewQueue(testConfig(2), sales, failures, stock, okIngredients{})
	q.Start(ctx)

	if err := q.Enqueue(sale.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, func() bool { return sales.statusOf(sale.ID) == model.DeductionFailed })

	failures.mu.Lock()
	f := failures.created[0]
	failures.mu.Unlock()
	if f.Stage != StageStock || f.Attempts != 2 || f.SaleID != sale.ID {
		t.Fatalf("unexpected dead letter %+v", f)
	}
}

func TestQueueReplayResolvesFailure(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), SaleNo: "S-3", DeductionStatus: model.DeductionFailed}
	sales := newMemSales(sale)
	failures := &memFailures{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewQueue(testConfig(1), sales, failures, &flakyStock{}, okIngredients{})
	q.Start(ctx)

	failureID := uuid.New()
	if err := q.Replay(sale.ID, failureID); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	waitFor(t, func() bool {
		_, resolved := failures.counts()
		return resolved == 1
	})
	if sales.statusOf(sale.ID) != model.DeductionDone {
		t.Fatalf("expected sale done after replay")
	}
}

func TestQueueReplayFailureUpdatesOriginal(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), SaleNo: "S-4", DeductionStatus: model.DeductionFailed}
	sales := newMemSales(sale)
	failureID := uuid.New()
	failures := &memFailures{open: map[uuid.UUID]bool{failureID: true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewQueue(testConfig(2), sales, failures, &flakyStock{failUntil: 100}, okIngredients{})
	q.Start(ctx)

	if err := q.Replay(sale.ID, failureID); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	waitFor(t, func() bool {
		failures.mu.Lock()
		defer failures.mu.Unlock()
		return len(failures.retried) == 1
	})

	failures.mu.Lock()
	retry := failures.retried[0]
	failures.mu.Unlock()
	if retry.ID != failureID || retry.Stage != StageStock || retry.Attempts != 2 {
		t.Fatalf("unexpected retry %+v", retry)
	}
	if created, resolved := failures.counts(); created != 0 || resolved != 0 {
		t.Fatalf("expected no new dead letter, got created=%d resolved=%d", created, resolved)
	}
}

func TestQueueReplayOfClosedFailureWritesNewOne(t *testing.T) {
	sale := model.Sale{ID: uuid.New(), SaleNo: "S-5", DeductionStatus: model.DeductionFailed}
	sales := newMemSales(sale)
	failures := &memFailures{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewQueue(testConfig(1), sales, failures, &flakyStock{failUntil: 100}, okIngredients{})
	q.Start(ctx)

	if err := q.Replay(sale.ID, uuid.New()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	waitFor(t, func() bool {
		created, _ := failures.counts()
		return created == 1
	})
	failures.mu.Lock()
	defer failures.mu.Unlock()
	if len(failures.retried) != 0 || failures.created[0].SaleID != sale.ID {
		t.Fatalf("unexpected dead letters retried=%v created=%v", failures.retried, failures.created)
	}
}

func TestQueueFullAndRequeue(t *testing.T) {
	var pending []model.Sale
	for i := 0; i < 6; i++ {
		pending = append(pending, model.Sale{ID: uuid.New(), DeductionStatus: model.DeductionPending})
	}
	sales := newMemSales(pending...)

	// Workers are not started, so the buffer fills up.
	q := NewQueue(testConfig(1), sales, &memFailures{}, &flakyStock{}, okIngredients{})
	n, err := q.Requeue(context.Background(), sales)
	if err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 requeued into a queue of 4, got %d", n)
	}
	if err := q.Enqueue(uuid.New()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, time.Second)
	cases := map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 4: 800 * time.Millisecond, 5: time.Second, 9: time.Second}
	for n, want := range cases {
		if got := b(n); got != want {
			t.Errorf("backoff(%d) = %v, expected %v", n, got, want)
		}
	}
}
