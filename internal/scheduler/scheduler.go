// Package scheduler runs named periodic tasks on a cron schedule. Every task
// receives a context that is cancelled when the scheduler stops, so in-flight
// work (redelivery sweeps, polls) shuts down with the process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type entry struct {
	id      cron.EntryID
	run     func()
	timeout time.Duration
}

// Scheduler wraps a cron runner with task-scoped cancellation.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]entry
	running sync.WaitGroup
}

// New creates a scheduler. Overlapping runs of the same task are skipped and
// panics are recovered and logged.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]entry),
	}
}

// Add registers task under name. timeout bounds a single run (0 = none).
func (s *Scheduler) Add(name, spec string, timeout time.Duration, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("scheduler: task %q already registered", name)
	}

	run := func() { s.runOnce(name, timeout, task) }
	id, err := s.cron.AddFunc(spec, run)
	if err != nil {
		return fmt.Errorf("scheduler: schedule %q (%s): %w", name, spec, err)
	}
	s.entries[name] = entry{id: id, run: run, timeout: timeout}
	s.logger.Info("scheduled task", "task", name, "schedule", spec)
	return nil
}

// Trigger runs the named task immediately in the background, outside its
// schedule.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown task %q", name)
	}
	go e.run()
	return nil
}

// Next returns the next scheduled run of name, or the zero time if the
// scheduler has not started.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(e.id).Next
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running tasks and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runOnce(name string, timeout time.Duration, task Task) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task", name, "panic", r)
		}
	}()

	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := task(ctx)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		s.logger.Debug("task finished", "task", name, "duration_ms", elapsed.Milliseconds())
	case errors.Is(err, context.Canceled) && s.ctx.Err() != nil:
		s.logger.Info("task cancelled", "task", name)
	default:
		s.logger.Error("task failed", "task", name, "duration_ms", elapsed.Milliseconds(), "error", err)
	}
}
