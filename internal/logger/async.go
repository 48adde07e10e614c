package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes and stops buffered logging.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler hands records to a pool of writers through a bounded queue.
// Records are dropped rather than blocking the caller when the queue is full.
type AsyncHandler struct {
	inner  slog.Handler
	shared *asyncState
}

type asyncState struct {
	queue   chan queued
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
	root    slog.Handler
}

type queued struct {
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler starts workers draining a queue of the given capacity.
func NewAsyncHandler(inner slog.Handler, capacity, workers int) *AsyncHandler {
	if workers < 1 {
		workers = 1
	}
	st := &asyncState{queue: make(chan queued, capacity), root: inner}
	for range workers {
		st.wg.Add(1)
		go st.drain()
	}
	return &AsyncHandler{inner: inner, shared: st}
}

func (s *asyncState) drain() {
	defer s.wg.Done()
	for q := range s.queue {
		_ = q.h.Handle(context.Background(), q.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record for the handler it was created on.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.shared.queue <- queued{h: h.inner, rec: rec.Clone()}:
	default:
		h.shared.dropped.Add(1)
	}
	return nil
}

// WithAttrs shares the queue with the parent handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), shared: h.shared}
}

// WithGroup shares the queue with the parent handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), shared: h.shared}
}

// DroppedCount returns the number of records discarded because the queue was full.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.shared.dropped.Load()
}

// Close drains the queue and waits for the workers. When records were
// dropped a final warning carrying the count is written synchronously.
// Close is safe to call more than once.
func (h *AsyncHandler) Close() {
	h.shared.once.Do(func() {
		close(h.shared.queue)
		h.shared.wg.Wait()
		if n := h.shared.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async logger dropped records", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.shared.root.Handle(context.Background(), rec)
		}
	})
}
