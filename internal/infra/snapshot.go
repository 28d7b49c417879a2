package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seenimoa/secfilter/internal/metrics"
)

// Loader fetches a fresh snapshot value.
type Loader[T any] func(ctx context.Context) (T, error)

// Snapshot is a process-wide, read-mostly cached value with a validity
// window. Get refreshes a stale value through the loader and keeps serving
// the previous value when the refresh fails.
//
// Concurrent refreshes are allowed to race: loads are idempotent and the
// last completed load wins. The mutex only protects the fields themselves.
type Snapshot[T any] struct {
	name   string
	ttl    time.Duration
	load   Loader[T]
	now    Clock
	logger *slog.Logger

	mu       sync.RWMutex
	value    T
	loadedAt time.Time
	ok       bool
}

// SnapshotOption customizes a Snapshot.
type SnapshotOption func(*snapshotOptions)

type snapshotOptions struct {
	clock  Clock
	logger *slog.Logger
}

// WithClock injects the time source.
func WithClock(c Clock) SnapshotOption {
	return func(o *snapshotOptions) { o.clock = c }
}

// WithLogger sets the logger used to report refresh failures.
func WithLogger(l *slog.Logger) SnapshotOption {
	return func(o *snapshotOptions) { o.logger = l }
}

// NewSnapshot creates an empty snapshot; the first Get loads it.
func NewSnapshot[T any](name string, ttl time.Duration, load Loader[T], opts ...SnapshotOption) *Snapshot[T] {
	o := snapshotOptions{clock: time.Now, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return &Snapshot[T]{
		name:   name,
		ttl:    ttl,
		load:   load,
		now:    o.clock,
		logger: o.logger,
	}
}

// Get returns the cached value, refreshing it first when stale or absent.
// An error is returned only when the refresh fails and nothing was ever loaded.
func (s *Snapshot[T]) Get(ctx context.Context) (T, error) {
	s.mu.RLock()
	value, loadedAt, ok := s.value, s.loadedAt, s.ok
	s.mu.RUnlock()

	if ok && s.now().Sub(loadedAt) < s.ttl {
		metrics.SnapshotReads.WithLabelValues(s.name, "fresh").Inc()
		return value, nil
	}

	fresh, err := s.load(ctx)
	if err != nil {
		if ok {
			metrics.SnapshotReads.WithLabelValues(s.name, "stale").Inc()
			s.logger.Warn("snapshot refresh failed, serving stale value",
				"snapshot", s.name, "age", s.now().Sub(loadedAt).Round(time.Second), "error", err)
			return value, nil
		}
		metrics.SnapshotReads.WithLabelValues(s.name, "error").Inc()
		var zero T
		return zero, err
	}

	metrics.SnapshotReads.WithLabelValues(s.name, "refreshed").Inc()
	s.Set(fresh)
	return fresh, nil
}

// Set stores v as a freshly loaded value.
func (s *Snapshot[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.loadedAt = s.now()
	s.ok = true
	s.mu.Unlock()
}

// Peek returns the cached value without refreshing, and whether one exists.
func (s *Snapshot[T]) Peek() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.ok
}

// Age returns how long ago the value was loaded, or -1 when empty.
func (s *Snapshot[T]) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return -1
	}
	return s.now().Sub(s.loadedAt)
}
