package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/RentMatch/internal/domain/notification"
)

const notificationColumns = `id, recipient_id, type, title, message, action_url, is_read,
	COALESCE(source_type, ''), COALESCE(source_id, ''), created_at, read_at`

func scanNotification(row scannable) (notification.Notification, error) {
	var (
		n   notification.Notification
		typ string
	)
	err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &n.ActionURL, &n.IsRead,
		&n.SourceType, &n.SourceID, &n.CreatedAt, &n.ReadAt)
	n.Type = notification.Type(typ)
	return n, err
}

// CreateNotification inserts n. Notifications with a source are unique per
// source; a repeat returns the stored row with created=false.
func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, recipient_id, type, title, message, action_url, source_type, source_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (source_type, source_id) DO NOTHING
		 RETURNING is_read, created_at`,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, n.ActionURL,
		nullIfEmpty(n.SourceType), nullIfEmpty(n.SourceID)).Scan(&n.IsRead, &n.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("create notification: %w", err)
	}

	existing, err := scanNotification(s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE source_type = $1 AND source_id = $2`,
		n.SourceType, n.SourceID))
	if err != nil {
		return false, notFoundWrap(err, "get notification for %s %s", n.SourceType, n.SourceID)
	}
	*n = existing
	return false, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, opts notification.ListOptions) ([]notification.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE recipient_id = $1 AND (NOT $2 OR NOT is_read)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`, recipientID, opts.UnreadOnly, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return orEmpty(out), rows.Err()
}

// CountUnread counts rows; there is no stored counter to drift.
func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, now())
		 WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	return execExpectOne(tag, err, "mark notification %s read", id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}
