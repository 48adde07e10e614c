package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Strob0t/RentMatch/internal/port/chat"
)

// CreateThread records a chat thread locally, one per contact request.
// It is used when no external chat service is configured.
func (s *Store) CreateThread(ctx context.Context, req chat.ThreadRequest) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_threads (id, contact_id, owner_id, renter_id, property_id, initial_message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (contact_id) DO UPDATE SET contact_id = EXCLUDED.contact_id
		 RETURNING id`,
		uuid.NewString(), req.ContactID, req.OwnerID, req.RenterID, req.PropertyID, req.InitialMessage).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create thread for contact %s: %w", req.ContactID, err)
	}
	return id, nil
}
