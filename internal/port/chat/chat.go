// Package chat defines the chat-thread collaborator port.
package chat

import "context"

// ThreadRequest opens the conversation behind a contact request.
type ThreadRequest struct {
	ContactID      string `json:"contact_id"`
	OwnerID        string `json:"owner_id"`
	RenterID       string `json:"renter_id"`
	PropertyID     string `json:"property_id"`
	InitialMessage string `json:"initial_message"`
}

// ThreadCreator creates chat threads. Implementations must return the same
// thread for repeated requests with the same ContactID.
type ThreadCreator interface {
	CreateThread(ctx context.Context, req ThreadRequest) (threadID string, err error)
}
