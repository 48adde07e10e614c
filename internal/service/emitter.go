package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/port/messagequeue"
)

// Emitter hands a stored contact request to notification dispatch.
type Emitter interface {
	Emit(ctx context.Context, ev contact.Created) error
}

// Dispatcher is the direct dispatch entry point (NotificationService).
type Dispatcher interface {
	Dispatch(ctx context.Context, ev contact.Created) error
}

// SyncEmitter dispatches inline with a bounded timeout. The dispatch context
// is detached from the caller's cancellation: once a contact is committed,
// an abandoned HTTP request must not abort its notification.
type SyncEmitter struct {
	dispatcher Dispatcher
	timeout    time.Duration
}

// NewSyncEmitter creates a SyncEmitter.
func NewSyncEmitter(d Dispatcher, timeout time.Duration) *SyncEmitter {
	return &SyncEmitter{dispatcher: d, timeout: timeout}
}

// Emit dispatches ev and returns the dispatch error, if any.
func (e *SyncEmitter) Emit(ctx context.Context, ev contact.Created) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	return e.dispatcher.Dispatch(ctx, ev)
}

// QueueEmitter publishes contacts.created for the notification subscriber.
type QueueEmitter struct {
	queue   messagequeue.Queue
	timeout time.Duration
}

// NewQueueEmitter creates a QueueEmitter.
func NewQueueEmitter(q messagequeue.Queue, timeout time.Duration) *QueueEmitter {
	return &QueueEmitter{queue: q, timeout: timeout}
}

// Emit publishes ev. A publish failure leaves the contact undispatched for
// the redelivery sweep.
func (e *QueueEmitter) Emit(ctx context.Context, ev contact.Created) error {
	data, err := json.Marshal(messagequeue.NewContactCreatedPayload(ev))
	if err != nil {
		return fmt.Errorf("marshal contact event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.queue.Publish(ctx, messagequeue.SubjectContactCreated, data); err != nil {
		return fmt.Errorf("publish %s: %w", messagequeue.SubjectContactCreated, err)
	}
	return nil
}
