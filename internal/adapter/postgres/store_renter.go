package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

const renterColumns = `id, name, email, phone, documents, subscription_tier, is_verified_renter,
	profile_visibility, employment_type, income_range, looking_for, budget_min, budget_max,
	preferred_locations, move_in_date, created_at, updated_at`

func scanRenter(row scannable) (renter.Profile, error) {
	var (
		p          renter.Profile
		tier       string
		employment string
		lookingFor []string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Documents, &tier, &p.IsVerifiedRenter,
		&p.ProfileVisibility, &employment, &p.IncomeRange, &lookingFor, &p.BudgetMin, &p.BudgetMax,
		&p.PreferredLocations, &p.MoveInDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.SubscriptionTier = renter.Tier(tier)
	p.EmploymentType = renter.EmploymentType(employment)
	p.LookingFor = make([]renter.BHK, len(lookingFor))
	for i, b := range lookingFor {
		p.LookingFor[i] = renter.BHK(b)
	}
	p.PreferredLocations = orEmpty(p.PreferredLocations)
	return p, nil
}

func (s *Store) GetRenter(ctx context.Context, id string) (*renter.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+renterColumns+` FROM renter_profiles WHERE id = $1`, id)
	p, err := scanRenter(row)
	if err != nil {
		return nil, notFoundWrap(err, "get renter %s", id)
	}
	return &p, nil
}

func (s *Store) ListVisibleRenters(ctx context.Context) ([]renter.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+renterColumns+` FROM renter_profiles
		 WHERE subscription_tier = 'premium' AND is_verified_renter AND profile_visibility
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list visible renters: %w", err)
	}
	defer rows.Close()

	var out []renter.Profile
	for rows.Next() {
		p, err := scanRenter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan renter: %w", err)
		}
		out = append(out, p)
	}
	return orEmpty(out), rows.Err()
}

func (s *Store) SetProfileVisibility(ctx context.Context, renterID string, visible bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE renter_profiles
		 SET profile_visibility = $2,
		     updated_at = CASE WHEN profile_visibility = $2 THEN updated_at ELSE now() END
		 WHERE id = $1`, renterID, visible)
	return execExpectOne(tag, err, "set visibility for renter %s", renterID)
}

// SaveRenter inserts or replaces a renter profile. Profiles are owned by the
// account service; this keeps the local copy in sync.
func (s *Store) SaveRenter(ctx context.Context, p *renter.Profile) error {
	lookingFor := make([]string, len(p.LookingFor))
	for i, b := range p.LookingFor {
		lookingFor[i] = string(b)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO renter_profiles (id, name, email, phone, documents, subscription_tier, is_verified_renter,
			profile_visibility, employment_type, income_range, looking_for, budget_min, budget_max,
			preferred_locations, move_in_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			documents = EXCLUDED.documents, subscription_tier = EXCLUDED.subscription_tier,
			is_verified_renter = EXCLUDED.is_verified_renter, profile_visibility = EXCLUDED.profile_visibility,
			employment_type = EXCLUDED.employment_type, income_range = EXCLUDED.income_range,
			looking_for = EXCLUDED.looking_for, budget_min = EXCLUDED.budget_min, budget_max = EXCLUDED.budget_max,
			preferred_locations = EXCLUDED.preferred_locations, move_in_date = EXCLUDED.move_in_date,
			updated_at = now()
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Email, p.Phone, orEmpty(p.Documents), string(p.SubscriptionTier), p.IsVerifiedRenter,
		p.ProfileVisibility, string(p.EmploymentType), p.IncomeRange, lookingFor, p.BudgetMin, p.BudgetMax,
		orEmpty(p.PreferredLocations), p.MoveInDate)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("save renter %s: %w", p.ID, err)
	}
	return nil
}

// AnonymousSeq returns the renter's sequence number, allocating one on
// first use. Concurrent first calls agree on a single number.
func (s *Store) AnonymousSeq(ctx context.Context, renterID string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO anonymous_ids (renter_id) VALUES ($1)
		 ON CONFLICT (renter_id) DO NOTHING
		 RETURNING seq`, renterID).Scan(&seq)
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("allocate anonymous id for %s: %w", renterID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("allocate anonymous id for %s: %w", renterID, err)
	}

	err = s.pool.QueryRow(ctx, `SELECT seq FROM anonymous_ids WHERE renter_id = $1`, renterID).Scan(&seq)
	if err != nil {
		return 0, notFoundWrap(err, "get anonymous id for %s", renterID)
	}
	return seq, nil
}

func (s *Store) RenterIDBySeq(ctx context.Context, seq int64) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT renter_id FROM anonymous_ids WHERE seq = $1`, seq).Scan(&id)
	if err != nil {
		return "", notFoundWrap(err, "resolve anonymous id %d", seq)
	}
	return id, nil
}
