package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/eligibility"
	"github.com/Strob0t/RentMatch/internal/domain/marketplace"
	"github.com/Strob0t/RentMatch/internal/domain/notification"
	"github.com/Strob0t/RentMatch/internal/domain/principal"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MB

// MarketplaceQuerier answers owner searches.
type MarketplaceQuerier interface {
	Query(ctx context.Context, p principal.Principal, f marketplace.Filter) ([]marketplace.AnonymizedRenterView, error)
}

// ContactCreator runs the contact workflow.
type ContactCreator interface {
	Contact(ctx context.Context, p principal.Principal, req contact.CreateRequest) (*contact.Result, error)
}

// PrivacyManager reads and updates a renter's privacy settings.
type PrivacyManager interface {
	Settings(ctx context.Context, p principal.Principal) (eligibility.PrivacySettings, error)
	Update(ctx context.Context, p principal.Principal, visible bool) (eligibility.PrivacySettings, error)
}

// Inbox serves a user's notifications.
type Inbox interface {
	List(ctx context.Context, p principal.Principal, opts notification.ListOptions) ([]notification.Notification, error)
	UnreadCount(ctx context.Context, p principal.Principal) (int, error)
	MarkRead(ctx context.Context, p principal.Principal, id string) error
	MarkAllRead(ctx context.Context, p principal.Principal) (int64, error)
}

// Handlers holds the HTTP handlers of the RentMatch API.
type Handlers struct {
	Marketplace   MarketplaceQuerier
	Contacts      ContactCreator
	Privacy       PrivacyManager
	Notifications Inbox
	Health        *Health
	MaxBodyBytes  int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.MaxBodyBytes > 0 {
		return h.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

// caller returns the request principal, or nil when auth let the request
// through without one. Services reject a nil principal.
func caller(r *http.Request) principal.Principal {
	p, _ := principal.FromContext(r.Context())
	return p
}
