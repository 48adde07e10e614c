package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/eligibility"
	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/database"
)

// ConsentService owns the renter's marketplace opt-in flag.
type ConsentService struct {
	store database.Store
}

// NewConsentService creates a ConsentService.
func NewConsentService(store database.Store) *ConsentService {
	return &ConsentService{store: store}
}

// Get returns the renter's profile_visibility flag.
func (s *ConsentService) Get(ctx context.Context, renterID string) (bool, error) {
	p, err := s.store.GetRenter(ctx, renterID)
	if err != nil {
		return false, notFoundOr(err, "renter not found", "get renter")
	}
	return p.ProfileVisibility, nil
}

// Set stores the flag. Setting the current value again is a no-op.
func (s *ConsentService) Set(ctx context.Context, renterID string, visible bool) error {
	if err := s.store.SetProfileVisibility(ctx, renterID, visible); err != nil {
		return notFoundOr(err, "renter not found", "set profile visibility")
	}
	logger.From(ctx).Debug("profile visibility updated", "renter_id", renterID, "visible", visible)
	return nil
}

// Settings returns the calling renter's privacy settings.
func (s *ConsentService) Settings(ctx context.Context, p principal.Principal) (eligibility.PrivacySettings, error) {
	if err := requireRenter(p); err != nil {
		return eligibility.PrivacySettings{}, err
	}
	prof, err := s.store.GetRenter(ctx, p.ID())
	if err != nil {
		return eligibility.PrivacySettings{}, notFoundOr(err, "renter not found", "get renter")
	}
	return eligibility.Privacy(prof), nil
}

// Update sets the calling renter's flag and returns the resulting settings.
func (s *ConsentService) Update(ctx context.Context, p principal.Principal, visible bool) (eligibility.PrivacySettings, error) {
	if err := requireRenter(p); err != nil {
		return eligibility.PrivacySettings{}, err
	}
	if err := s.Set(ctx, p.ID(), visible); err != nil {
		return eligibility.PrivacySettings{}, err
	}
	return s.Settings(ctx, p)
}

func requireRenter(p principal.Principal) error {
	if r := eligibility.RenterOnly(p); !r.Eligible {
		return domain.Forbidden(string(r.Reason()), "only renters manage privacy settings")
	}
	return nil
}

// notFoundOr maps a store ErrNotFound to a coded NOT_FOUND error and wraps
// anything else with op.
func notFoundOr(err error, notFoundMsg, op string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Error{Code: domain.CodeNotFound, Message: notFoundMsg, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
