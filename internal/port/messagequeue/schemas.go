package messagequeue

import (
	"time"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
)

// ContactCreatedPayload is the schema for contacts.created messages.
type ContactCreatedPayload struct {
	ContactID  string    `json:"contact_id"`
	OwnerID    string    `json:"owner_id"`
	RenterID   string    `json:"renter_id"`
	PropertyID string    `json:"property_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewContactCreatedPayload converts a domain event to its wire form.
func NewContactCreatedPayload(ev contact.Created) ContactCreatedPayload {
	return ContactCreatedPayload(ev)
}

// Event converts the payload back to the domain event.
func (p ContactCreatedPayload) Event() contact.Created {
	return contact.Created(p)
}
