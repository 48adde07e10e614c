package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/contact"
)

const contactColumns = `id, owner_id, renter_id, property_id, message, thread_id, created_at, dispatched_at`

func scanContact(row scannable) (contact.ContactRequest, error) {
	var c contact.ContactRequest
	err := row.Scan(&c.ID, &c.OwnerID, &c.RenterID, &c.PropertyID, &c.Message, &c.ThreadID, &c.CreatedAt, &c.DispatchedAt)
	return c, err
}

func (s *Store) ContactExists(ctx context.Context, ownerID, renterID, propertyID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contact_requests WHERE owner_id = $1 AND renter_id = $2 AND property_id = $3)`,
		ownerID, renterID, propertyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}
	return exists, nil
}

// CreateContact inserts the request unless one already exists for the same
// owner, renter and property. The check and insert are one statement.
func (s *Store) CreateContact(ctx context.Context, c *contact.ContactRequest) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contact_requests (id, owner_id, renter_id, property_id, message)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner_id, renter_id, property_id) DO NOTHING
		 RETURNING created_at`,
		c.ID, c.OwnerID, c.RenterID, c.PropertyID, c.Message).Scan(&c.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("create contact: %w", domain.ErrConflict)
	case isUniqueViolation(err):
		// Primary key collision on a caller-supplied id.
		return fmt.Errorf("create contact %s: %w", c.ID, domain.ErrConflict)
	case err != nil:
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *Store) GetContact(ctx context.Context, id string) (*contact.ContactRequest, error) {
	c, err := scanContact(s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contact_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get contact %s", id)
	}
	return &c, nil
}

func (s *Store) SetContactThread(ctx context.Context, id, threadID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE contact_requests SET thread_id = $2 WHERE id = $1`, id, threadID)
	return execExpectOne(tag, err, "set thread for contact %s", id)
}

func (s *Store) MarkContactDispatched(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contact_requests SET dispatched_at = COALESCE(dispatched_at, now()) WHERE id = $1`, id)
	return execExpectOne(tag, err, "mark contact %s dispatched", id)
}

func (s *Store) ListUndispatchedContacts(ctx context.Context, createdBefore time.Time, limit int) ([]contact.ContactRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contact_requests
		 WHERE dispatched_at IS NULL AND created_at < $1
		 ORDER BY created_at ASC
		 LIMIT $2`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list undispatched contacts: %w", err)
	}
	defer rows.Close()

	var out []contact.ContactRequest
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return orEmpty(out), rows.Err()
}
