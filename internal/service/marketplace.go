package service

import (
	"context"
	"fmt"

	rmotel "github.com/Strob0t/RentMatch/internal/adapter/otel"
	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/eligibility"
	"github.com/Strob0t/RentMatch/internal/domain/marketplace"
	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/database"
)

// MarketplaceService answers owner searches over visible renters.
type MarketplaceService struct {
	store   database.Store
	anon    *Anonymizer
	metrics *rmotel.Metrics
}

// NewMarketplaceService creates a MarketplaceService. metrics may be nil.
func NewMarketplaceService(store database.Store, anon *Anonymizer, metrics *rmotel.Metrics) *MarketplaceService {
	return &MarketplaceService{store: store, anon: anon, metrics: metrics}
}

// Query returns the anonymized renters matching f. An ineligible caller gets
// FORBIDDEN with a reason, never an empty list.
func (s *MarketplaceService) Query(ctx context.Context, p principal.Principal, f marketplace.Filter) (views []marketplace.AnonymizedRenterView, err error) {
	if f.SortBy == "" {
		f.SortBy = marketplace.SortRecent
	}
	ctx, span := rmotel.StartQuerySpan(ctx, principalID(p), string(f.SortBy))
	defer func() { rmotel.EndSpan(span, err) }()

	if r := eligibility.OwnerMayBrowse(p); !r.Eligible {
		s.metrics.QueryForbidden(ctx, string(r.Reason()))
		return nil, domain.Forbidden(string(r.Reason()), "marketplace access requires a verified owner account")
	}
	if err := f.Validate(); err != nil {
		return nil, &domain.Error{Code: domain.CodeValidation, Message: err.Error()}
	}

	views = []marketplace.AnonymizedRenterView{}
	if f.Empty() {
		s.metrics.QueryServed(ctx, 0)
		return views, nil
	}

	profiles, err := s.store.ListVisibleRenters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visible renters: %w", err)
	}

	matched := make([]renter.Profile, 0, len(profiles))
	for i := range profiles {
		prof := &profiles[i]
		if !eligibility.RenterVisible(prof).Eligible || !f.Matches(prof) {
			continue
		}
		matched = append(matched, *prof)
	}
	marketplace.Sort(matched, f.SortBy)

	for i := range matched {
		v, err := s.anon.Anonymize(ctx, &matched[i])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	s.metrics.QueryServed(ctx, len(views))
	logger.From(ctx).Debug("marketplace query served",
		"owner_id", principalID(p),
		"candidates", len(profiles),
		"results", len(views),
	)
	return views, nil
}

func principalID(p principal.Principal) string {
	if p == nil {
		return ""
	}
	return p.ID()
}
