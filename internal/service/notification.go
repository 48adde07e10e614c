// Package service contains the RentMatch application services.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rmotel "github.com/Strob0t/RentMatch/internal/adapter/otel"
	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/notification"
	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/chat"
	"github.com/Strob0t/RentMatch/internal/port/database"
	"github.com/Strob0t/RentMatch/internal/port/messagequeue"
)

// NotificationService turns contact events into renter notifications and
// serves the notification inbox.
type NotificationService struct {
	store        database.Store
	threads      chat.ThreadCreator
	actionPrefix string
	listLimit    int
	metrics      *rmotel.Metrics
}

// NewNotificationService creates a NotificationService. actionPrefix is the
// path the thread id is appended to in action URLs.
func NewNotificationService(store database.Store, threads chat.ThreadCreator, actionPrefix string, listLimit int, metrics *rmotel.Metrics) *NotificationService {
	return &NotificationService{
		store:        store,
		threads:      threads,
		actionPrefix: actionPrefix,
		listLimit:    listLimit,
		metrics:      metrics,
	}
}

// Dispatch delivers ev: it opens the chat thread, creates the renter's
// new_contact notification and marks the contact dispatched. Every step is
// idempotent, so redelivering the same event never duplicates anything.
func (s *NotificationService) Dispatch(ctx context.Context, ev contact.Created) error {
	return s.dispatch(ctx, ev, "direct")
}

func (s *NotificationService) dispatch(ctx context.Context, ev contact.Created, mode string) (err error) {
	if err := ev.Validate(); err != nil {
		return &domain.Error{Code: domain.CodeValidation, Message: err.Error()}
	}

	ctx, span := rmotel.StartDispatchSpan(ctx, ev.ContactID, mode)
	start := time.Now()
	created := false
	defer func() {
		s.metrics.Dispatched(ctx, mode, created, time.Since(start), err)
		rmotel.EndSpan(span, err)
	}()

	c, err := s.store.GetContact(ctx, ev.ContactID)
	if err != nil {
		return notFoundOr(err, "contact request not found", "get contact")
	}
	if c.DispatchedAt != nil {
		return nil
	}

	threadID := c.ThreadID
	if threadID == "" {
		threadID, err = s.threads.CreateThread(ctx, chat.ThreadRequest{
			ContactID:      c.ID,
			OwnerID:        c.OwnerID,
			RenterID:       c.RenterID,
			PropertyID:     c.PropertyID,
			InitialMessage: c.Message,
		})
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		if err := s.store.SetContactThread(ctx, c.ID, threadID); err != nil {
			return fmt.Errorf("set contact thread: %w", err)
		}
	}

	n := notification.ForContact(ev, threadID, s.actionPrefix)
	created, err = s.store.CreateNotification(ctx, &n)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if err := s.store.MarkContactDispatched(ctx, c.ID); err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}

	logger.From(ctx).Info("contact dispatched",
		"contact_id", c.ID,
		"notification_id", n.ID,
		"created", created,
		"mode", mode,
	)
	return nil
}

// HandleContactCreated is the queue subscriber for contacts.created.
// Returning an error makes the queue redeliver the message, so only
// failures a retry can fix are returned.
func (s *NotificationService) HandleContactCreated(ctx context.Context, _ string, data []byte) error {
	log := logger.From(ctx)
	var p messagequeue.ContactCreatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error("dropping undecodable contact event", "error", err)
		return nil
	}
	err := s.dispatch(ctx, p.Event(), "queue")
	switch {
	case errors.Is(err, domain.ErrValidation):
		log.Error("dropping malformed contact event", "contact_id", p.ContactID, "error", err)
		return nil
	case errors.Is(err, domain.ErrNotFound):
		// The contact row is committed before the event is published, so a
		// missing row means it was removed.
		log.Warn("dropping event for unknown contact", "contact_id", p.ContactID)
		return nil
	}
	return err
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, p principal.Principal, opts notification.ListOptions) ([]notification.Notification, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	list, err := s.store.ListNotifications(ctx, p.ID(), opts.Normalize(s.listLimit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []notification.Notification{}
	}
	return list, nil
}

// UnreadCount counts the caller's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, p principal.Principal) (int, error) {
	if p == nil {
		return 0, ErrUnauthenticated
	}
	n, err := s.store.CountUnread(ctx, p.ID())
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the caller's notifications read. Marking a read
// notification again is a no-op; other users' notifications are NOT_FOUND.
func (s *NotificationService) MarkRead(ctx context.Context, p principal.Principal, id string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if err := s.store.MarkNotificationRead(ctx, id, p.ID()); err != nil {
		return notFoundOr(err, "notification not found", "mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, p principal.Principal) (int64, error) {
	if p == nil {
		return 0, ErrUnauthenticated
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, p.ID())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

// ErrUnauthenticated is returned when a service is called without a principal.
var ErrUnauthenticated = errors.New("unauthenticated")
