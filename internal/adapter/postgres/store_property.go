package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/RentMatch/internal/domain/property"
)

func (s *Store) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	var (
		p      property.Property
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, status FROM properties WHERE id = $1`, id).
		Scan(&p.ID, &p.OwnerID, &p.Title, &status)
	if err != nil {
		return nil, notFoundWrap(err, "get property %s", id)
	}
	p.Status = property.Status(status)
	return &p, nil
}

// SaveProperty mirrors a listing from the property service.
func (s *Store) SaveProperty(ctx context.Context, p *property.Property) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (id, owner_id, title, status) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET owner_id = EXCLUDED.owner_id, title = EXCLUDED.title, status = EXCLUDED.status`,
		p.ID, p.OwnerID, p.Title, string(p.Status))
	if err != nil {
		return fmt.Errorf("save property %s: %w", p.ID, err)
	}
	return nil
}
