package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/database"
)

// Redelivery re-emits contact requests whose notification was never
// dispatched. It runs as a scheduled task.
type Redelivery struct {
	store   database.Store
	emitter Emitter
	grace   time.Duration
	batch   int
	now     func() time.Time
}

// NewRedelivery creates a Redelivery sweep. Requests younger than grace are
// left alone so the sweep does not race the original dispatch.
func NewRedelivery(store database.Store, emitter Emitter, grace time.Duration, batch int) *Redelivery {
	if batch <= 0 {
		batch = 100
	}
	return &Redelivery{store: store, emitter: emitter, grace: grace, batch: batch, now: time.Now}
}

// Run emits one batch of undispatched requests. Individual failures are
// logged and left for the next run; the first one is returned.
func (r *Redelivery) Run(ctx context.Context) error {
	pending, err := r.store.ListUndispatchedContacts(ctx, r.now().Add(-r.grace), r.batch)
	if err != nil {
		return fmt.Errorf("list undispatched contacts: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log := logger.From(ctx)
	var firstErr error
	sent := 0
	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c := &pending[i]
		if err := r.emitter.Emit(ctx, c.Event()); err != nil {
			log.Warn("redelivery failed", "contact_id", c.ID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("redeliver %s: %w", c.ID, err)
			}
			continue
		}
		sent++
	}
	log.Info("redelivery sweep", "pending", len(pending), "sent", sent)
	return firstErr
}
