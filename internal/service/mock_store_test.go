package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/notification"
	"github.com/Strob0t/RentMatch/internal/domain/property"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
	"github.com/Strob0t/RentMatch/internal/port/chat"
)

// mockStore is an in-memory database.Store with the same uniqueness rules
// as the postgres schema.
type mockStore struct {
	mu sync.Mutex

	renters map[string]*renter.Profile
	order   []string

	seqByRenter map[string]int64
	renterBySeq map[int64]string
	nextSeq     int64
	seqCalls    int

	properties map[string]*property.Property

	contacts    map[string]*contact.ContactRequest
	contactKeys map[string]string
	nextContact int

	notifications []*notification.Notification
	nextNotif     int

	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		renters:     make(map[string]*renter.Profile),
		seqByRenter: make(map[string]int64),
		renterBySeq: make(map[int64]string),
		properties:  make(map[string]*property.Property),
		contacts:    make(map[string]*contact.ContactRequest),
		contactKeys: make(map[string]string),
	}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
}

func (m *mockStore) addRenter(p renter.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(m.order)) * time.Hour)
	}
	m.renters[p.ID] = &p
	m.order = append(m.order, p.ID)
}

func (m *mockStore) addProperty(p property.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = &p
}

func (m *mockStore) GetRenter(_ context.Context, id string) (*renter.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.renters[id]
	if !ok {
		return nil, notFound("renter", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) ListVisibleRenters(_ context.Context) ([]renter.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []renter.Profile
	for _, id := range m.order {
		p := m.renters[id]
		if p.SubscriptionTier == renter.TierPremium && p.IsVerifiedRenter && p.ProfileVisibility {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockStore) SetProfileVisibility(_ context.Context, renterID string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.renters[renterID]
	if !ok {
		return notFound("renter", renterID)
	}
	p.ProfileVisibility = visible
	return nil
}

func (m *mockStore) AnonymousSeq(_ context.Context, renterID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqCalls++
	if seq, ok := m.seqByRenter[renterID]; ok {
		return seq, nil
	}
	m.nextSeq++
	m.seqByRenter[renterID] = m.nextSeq
	m.renterBySeq[m.nextSeq] = renterID
	return m.nextSeq, nil
}

func (m *mockStore) RenterIDBySeq(_ context.Context, seq int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.renterBySeq[seq]
	if !ok {
		return "", notFound("anonymous id", fmt.Sprint(seq))
	}
	return id, nil
}

func (m *mockStore) GetProperty(_ context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, notFound("property", id)
	}
	cp := *p
	return &cp, nil
}

func contactKey(owner, renterID, prop string) string {
	return owner + "|" + renterID + "|" + prop
}

func (m *mockStore) ContactExists(_ context.Context, ownerID, renterID, propertyID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.contactKeys[contactKey(ownerID, renterID, propertyID)]
	return ok, nil
}

func (m *mockStore) CreateContact(_ context.Context, c *contact.ContactRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := contactKey(c.OwnerID, c.RenterID, c.PropertyID)
	if _, ok := m.contactKeys[key]; ok {
		return fmt.Errorf("contact %s: %w", key, domain.ErrConflict)
	}
	m.nextContact++
	c.ID = fmt.Sprintf("contact-%d", m.nextContact)
	c.CreatedAt = time.Now()
	cp := *c
	m.contacts[c.ID] = &cp
	m.contactKeys[key] = c.ID
	return nil
}

func (m *mockStore) GetContact(_ context.Context, id string) (*contact.ContactRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, notFound("contact", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) SetContactThread(_ context.Context, id, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return notFound("contact", id)
	}
	c.ThreadID = threadID
	return nil
}

func (m *mockStore) MarkContactDispatched(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return notFound("contact", id)
	}
	if c.DispatchedAt == nil {
		now := time.Now()
		c.DispatchedAt = &now
	}
	return nil
}

func (m *mockStore) ListUndispatchedContacts(_ context.Context, createdBefore time.Time, limit int) ([]contact.ContactRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []contact.ContactRequest
	for _, c := range m.contacts {
		if c.DispatchedAt == nil && c.CreatedAt.Before(createdBefore) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) CreateNotification(_ context.Context, n *notification.Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.notifications {
		if existing.SourceType == n.SourceType && existing.SourceID == n.SourceID {
			*n = *existing
			return false, nil
		}
	}
	m.nextNotif++
	n.ID = fmt.Sprintf("notif-%d", m.nextNotif)
	n.CreatedAt = time.Now()
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return true, nil
}

func (m *mockStore) ListNotifications(_ context.Context, recipientID string, opts notification.ListOptions) ([]notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.RecipientID != recipientID || (opts.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
		if len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) MarkNotificationRead(_ context.Context, id, recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			if !n.IsRead {
				now := time.Now()
				n.IsRead = true
				n.ReadAt = &now
			}
			return nil
		}
	}
	return notFound("notification", id)
}

func (m *mockStore) MarkAllNotificationsRead(_ context.Context, recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	now := time.Now()
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			changed++
		}
	}
	return changed, nil
}

func (m *mockStore) Ping(context.Context) error { return nil }

func (m *mockStore) notificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

func (m *mockStore) contactCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts)
}

// mockThreads implements chat.ThreadCreator, one thread per contact.
type mockThreads struct {
	mu      sync.Mutex
	calls   int
	threads map[string]string
	err     error
}

func newMockThreads() *mockThreads {
	return &mockThreads{threads: make(map[string]string)}
}

func (m *mockThreads) CreateThread(_ context.Context, req chat.ThreadRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if id, ok := m.threads[req.ContactID]; ok {
		return id, nil
	}
	id := "thread-" + req.ContactID
	m.threads[req.ContactID] = id
	return id, nil
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

// visibleRenter returns a premium, verified, opted-in profile.
func visibleRenter(id string) renter.Profile {
	return renter.Profile{
		ID:                 id,
		Name:               "Name of " + id,
		Email:              id + "@example.com",
		Phone:              "+91 98765 43210",
		SubscriptionTier:   renter.TierPremium,
		IsVerifiedRenter:   true,
		ProfileVisibility:  true,
		EmploymentType:     renter.EmploymentSalaried,
		LookingFor:         []renter.BHK{renter.BHK2},
		BudgetMin:          20000,
		BudgetMax:          30000,
		PreferredLocations: []string{"Koramangala"},
	}
}
