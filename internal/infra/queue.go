package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/secfilter/internal/metrics"
)

// ErrQueueClosed is returned for tasks submitted to, or still pending in, a closed queue.
var ErrQueueClosed = errors.New("request queue closed")

// Task is a unit of work admitted by a Queue.
type Task func(ctx context.Context) error

type job struct {
	ctx      context.Context
	task     Task
	done     chan error
	enqueued time.Time
}

// Queue admits tasks for a single upstream provider in strict FIFO order,
// running one task at a time and starting at most intervalCap tasks per
// interval. Starts are spaced evenly, so no window of length interval ever
// sees more than intervalCap starts.
//
// Callers may submit from any number of goroutines; the queue only paces,
// it does not bound caller-side parallelism. A failed task never blocks
// the tasks queued behind it.
type Queue struct {
	name    string
	limiter *rate.Limiter

	mu      sync.Mutex
	pending []*job
	closed  bool
	wake    chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// NewQueue creates and starts a queue named after its provider.
func NewQueue(name string, intervalCap int, interval time.Duration) *Queue {
	if intervalCap < 1 {
		intervalCap = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	q := &Queue{
		name:    name,
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(intervalCap)), 1),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	go q.run()
	return q
}

// NewQueuePerSecond creates a queue from a requests-per-second rate,
// e.g. 2.5 → one start every 400ms.
func NewQueuePerSecond(name string, perSecond float64) *Queue {
	if perSecond <= 0 {
		perSecond = 1
	}
	return NewQueue(name, 1, time.Duration(float64(time.Second)/perSecond))
}

// Name returns the provider name of the queue.
func (q *Queue) Name() string { return q.name }

// Len returns the number of tasks waiting for admission.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Submit enqueues task and blocks until it has run or ctx is done.
// If ctx ends while the task is still queued, the task is never started.
func (q *Queue) Submit(ctx context.Context, task Task) error {
	j := &job{ctx: ctx, task: task, done: make(chan error, 1), enqueued: time.Now()}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, j)
	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.pending)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		// The worker observes the cancelled context and skips the task.
		return ctx.Err()
	}
}

// Close stops the worker. Pending tasks fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		pending := q.pending
		q.pending = nil
		q.mu.Unlock()
		for _, j := range pending {
			j.done <- ErrQueueClosed
		}
		close(q.stop)
	})
}

func (q *Queue) run() {
	for {
		j := q.next()
		if j == nil {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}
		q.exec(j)
	}
}

func (q *Queue) next() *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.pending)))
	return j
}

func (q *Queue) exec(j *job) {
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}
	if err := q.limiter.Wait(j.ctx); err != nil {
		j.done <- fmt.Errorf("%s queue: %w", q.name, err)
		return
	}
	metrics.QueueWait.WithLabelValues(q.name).Observe(time.Since(j.enqueued).Seconds())
	metrics.QueueAdmitted.WithLabelValues(q.name).Inc()
	j.done <- j.task(j.ctx)
}

// Do runs fn through q and returns its result.
func Do[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := q.Submit(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
