// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/notification"
	"github.com/Strob0t/RentMatch/internal/domain/property"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

// Store is the port interface for database operations.
// Lookups of unknown ids return an error wrapping domain.ErrNotFound.
type Store interface {
	// Renters
	GetRenter(ctx context.Context, id string) (*renter.Profile, error)
	// ListVisibleRenters returns premium, verified, opted-in renters in
	// creation order (oldest first).
	ListVisibleRenters(ctx context.Context) ([]renter.Profile, error)
	SetProfileVisibility(ctx context.Context, renterID string, visible bool) error

	// Anonymous ids
	// AnonymousSeq returns the renter's sequence number, allocating the next
	// one on first use. Allocated numbers are never reused.
	AnonymousSeq(ctx context.Context, renterID string) (int64, error)
	RenterIDBySeq(ctx context.Context, seq int64) (string, error)

	// Properties
	GetProperty(ctx context.Context, id string) (*property.Property, error)

	// Contacts
	ContactExists(ctx context.Context, ownerID, renterID, propertyID string) (bool, error)
	// CreateContact inserts c, filling ID and CreatedAt. A second request for
	// the same (owner, renter, property) returns domain.ErrConflict.
	CreateContact(ctx context.Context, c *contact.ContactRequest) error
	GetContact(ctx context.Context, id string) (*contact.ContactRequest, error)
	SetContactThread(ctx context.Context, id, threadID string) error
	MarkContactDispatched(ctx context.Context, id string) error
	ListUndispatchedContacts(ctx context.Context, createdBefore time.Time, limit int) ([]contact.ContactRequest, error)

	// Notifications
	// CreateNotification inserts n unless one already exists for its source,
	// in which case n is replaced by the stored row and created is false.
	CreateNotification(ctx context.Context, n *notification.Notification) (created bool, err error)
	ListNotifications(ctx context.Context, recipientID string, opts notification.ListOptions) ([]notification.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)

	Ping(ctx context.Context) error
}
