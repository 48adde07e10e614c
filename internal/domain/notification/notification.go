// Package notification defines in-app notifications and their read state.
package notification

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
)

// Type classifies a notification.
type Type string

const TypeNewContact Type = "new_contact"

// SourceContact marks notifications created from a contact request.
const SourceContact = "contact_request"

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

const previewRunes = 140

// Notification is a message shown to a user. Only the read state changes
// after creation.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ActionURL   string     `json:"action_url"`
	IsRead      bool       `json:"is_read"`
	SourceType  string     `json:"-"`
	SourceID    string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// ListOptions controls a notification listing.
type ListOptions struct {
	Limit      int
	UnreadOnly bool
}

// Normalize clamps Limit into [1, MaxListLimit], using def when unset.
func (o ListOptions) Normalize(def int) ListOptions {
	if def <= 0 {
		def = DefaultListLimit
	}
	if o.Limit <= 0 {
		o.Limit = def
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}

// ForContact builds the renter's notification for a new contact request.
// actionPrefix is joined with the thread id to form the action URL.
func ForContact(ev contact.Created, threadID, actionPrefix string) Notification {
	return Notification{
		RecipientID: ev.RenterID,
		Type:        TypeNewContact,
		Title:       "A property owner wants to connect",
		Message:     preview(ev.Message),
		ActionURL:   strings.TrimSuffix(actionPrefix, "/") + "/" + threadID,
		SourceType:  SourceContact,
		SourceID:    ev.ContactID,
	}
}

func preview(msg string) string {
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) <= previewRunes {
		return msg
	}
	r := []rune(msg)
	return string(r[:previewRunes-1]) + "…"
}
