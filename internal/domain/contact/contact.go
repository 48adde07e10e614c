// Package contact defines the owner-to-renter contact request.
package contact

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ContactRequest is an owner's pitch of one property to one renter.
// At most one exists per (owner, renter, property).
type ContactRequest struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	RenterID     string     `json:"-"`
	AnonymousID  string     `json:"renter_id"`
	PropertyID   string     `json:"property_id"`
	Message      string     `json:"message"`
	ThreadID     string     `json:"thread_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

// CreateRequest is the input of the contact workflow. RenterID is the
// anonymous id the owner saw ("Renter #N").
type CreateRequest struct {
	RenterID   string `json:"renter_id"`
	PropertyID string `json:"property_id"`
	Message    string `json:"message"`
}

// NormalizedMessage returns the message trimmed of surrounding whitespace.
func (r *CreateRequest) NormalizedMessage() string {
	return strings.TrimSpace(r.Message)
}

// ValidateMessage checks the trimmed message is present and at most maxLen runes.
func (r *CreateRequest) ValidateMessage(maxLen int) error {
	msg := r.NormalizedMessage()
	if msg == "" {
		return errors.New("message is required")
	}
	if n := utf8.RuneCountInString(msg); maxLen > 0 && n > maxLen {
		return fmt.Errorf("message exceeds %d characters", maxLen)
	}
	return nil
}

// Result is returned by the contact workflow. DeliveryDegraded is set when
// the request was stored but the notification could not be dispatched yet.
type Result struct {
	ContactRequest   ContactRequest `json:"contact_request"`
	DeliveryDegraded bool           `json:"delivery_degraded"`
}

// Created is emitted once per stored contact request.
type Created struct {
	ContactID  string    `json:"contact_id"`
	OwnerID    string    `json:"owner_id"`
	RenterID   string    `json:"renter_id"`
	PropertyID string    `json:"property_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event builds the Created event for a stored request.
func (c *ContactRequest) Event() Created {
	return Created{
		ContactID:  c.ID,
		OwnerID:    c.OwnerID,
		RenterID:   c.RenterID,
		PropertyID: c.PropertyID,
		Message:    c.Message,
		CreatedAt:  c.CreatedAt,
	}
}

// Validate checks that the event identifies a contact and its parties.
func (e *Created) Validate() error {
	switch {
	case e.ContactID == "":
		return errors.New("contact_id is required")
	case e.OwnerID == "":
		return errors.New("owner_id is required")
	case e.RenterID == "":
		return errors.New("renter_id is required")
	}
	return nil
}
