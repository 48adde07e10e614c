// Package marketplace defines what an owner sees of a renter and how the
// visible population is filtered and ordered.
package marketplace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

// AnonymousIDPrefix precedes the per-renter sequence number.
const AnonymousIDPrefix = "Renter #"

// AnonymizedRenterView is the redacted projection of a renter profile.
// Adding a field here widens what owners can see.
type AnonymizedRenterView struct {
	AnonymousID        string                `json:"anonymous_id"`
	SubscriptionTier   renter.Tier           `json:"subscription_tier"`
	IsVerified         bool                  `json:"is_verified"`
	EmploymentType     renter.EmploymentType `json:"employment_type,omitempty"`
	IncomeRange        string                `json:"income_range,omitempty"`
	LookingFor         []renter.BHK          `json:"looking_for"`
	BudgetMin          int64                 `json:"budget_min"`
	BudgetMax          int64                 `json:"budget_max"`
	PreferredLocations []string              `json:"preferred_locations"`
	MoveInDate         *time.Time            `json:"move_in_date,omitempty"`
}

// Project copies the allow-listed fields of p into a view labelled with
// the given anonymous id. Slices are copied so the view never aliases p.
func Project(anonymousID string, p *renter.Profile) AnonymizedRenterView {
	v := AnonymizedRenterView{
		AnonymousID:        anonymousID,
		SubscriptionTier:   p.SubscriptionTier,
		IsVerified:         p.IsVerifiedRenter,
		EmploymentType:     p.EmploymentType,
		IncomeRange:        p.IncomeRange,
		LookingFor:         append([]renter.BHK{}, p.LookingFor...),
		BudgetMin:          p.BudgetMin,
		BudgetMax:          p.BudgetMax,
		PreferredLocations: append([]string{}, p.PreferredLocations...),
	}
	if p.MoveInDate != nil {
		d := *p.MoveInDate
		v.MoveInDate = &d
	}
	return v
}

// FormatAnonymousID renders a sequence number as "Renter #N".
func FormatAnonymousID(seq int64) string {
	return AnonymousIDPrefix + strconv.FormatInt(seq, 10)
}

// ParseAnonymousID accepts "Renter #N", "#N" or "N" and returns N.
func ParseAnonymousID(s string) (int64, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, AnonymousIDPrefix)
	raw = strings.TrimPrefix(raw, "#")
	if raw == "" {
		return 0, errors.New("anonymous id is required")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid anonymous id: %q", s)
	}
	return n, nil
}
