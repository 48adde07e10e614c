package marketplace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

// SortBy orders query results.
type SortBy string

const (
	SortRecent     SortBy = "recent"
	SortBudgetLow  SortBy = "budget_low"
	SortBudgetHigh SortBy = "budget_high"
	SortMoveInDate SortBy = "move_in_date"
)

// ValidSorts is the set of recognized sort orders.
var ValidSorts = map[SortBy]bool{
	SortRecent:     true,
	SortBudgetLow:  true,
	SortBudgetHigh: true,
	SortMoveInDate: true,
}

// Filter holds the query parameters of a marketplace search.
// Zero values mean "no constraint".
type Filter struct {
	BudgetMin      int64                 `json:"budget_min"`
	BudgetMax      int64                 `json:"budget_max"`
	BHKTypes       []renter.BHK          `json:"bhk_type"`
	Location       string                `json:"location"`
	EmploymentType renter.EmploymentType `json:"employment_type"`
	SortBy         SortBy                `json:"sort_by"`
}

// Validate rejects malformed filters. An inverted budget window is not
// malformed; see Empty.
func (f *Filter) Validate() error {
	if f.BudgetMin < 0 || f.BudgetMax < 0 {
		return fmt.Errorf("budget must be >= 0")
	}
	if f.SortBy != "" && !ValidSorts[f.SortBy] {
		return fmt.Errorf("invalid sort_by: %q", f.SortBy)
	}
	for _, b := range f.BHKTypes {
		if !renter.ValidBHK[b] {
			return fmt.Errorf("invalid bhk_type: %q", b)
		}
	}
	if f.EmploymentType != "" && !renter.ValidEmploymentTypes[f.EmploymentType] {
		return fmt.Errorf("invalid employment_type: %q", f.EmploymentType)
	}
	return nil
}

// Empty reports whether the filter can match nothing (budget_min > budget_max).
func (f *Filter) Empty() bool {
	return f.BudgetMin > 0 && f.BudgetMax > 0 && f.BudgetMin > f.BudgetMax
}

// Matches applies every predicate conjunctively.
func (f *Filter) Matches(p *renter.Profile) bool {
	return f.budgetOverlaps(p) &&
		f.bhkIntersects(p) &&
		f.locationMatches(p) &&
		(f.EmploymentType == "" || p.EmploymentType == f.EmploymentType)
}

// budgetOverlaps treats a zero bound on either side as open.
func (f *Filter) budgetOverlaps(p *renter.Profile) bool {
	if f.BudgetMax > 0 && p.BudgetMin > f.BudgetMax {
		return false
	}
	if f.BudgetMin > 0 && p.BudgetMax > 0 && p.BudgetMax < f.BudgetMin {
		return false
	}
	return true
}

func (f *Filter) bhkIntersects(p *renter.Profile) bool {
	if len(f.BHKTypes) == 0 {
		return true
	}
	for _, want := range f.BHKTypes {
		for _, have := range p.LookingFor {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (f *Filter) locationMatches(p *renter.Profile) bool {
	needle := strings.ToLower(strings.TrimSpace(f.Location))
	if needle == "" {
		return true
	}
	for _, loc := range p.PreferredLocations {
		if strings.Contains(strings.ToLower(loc), needle) {
			return true
		}
	}
	return false
}

// Sort orders profiles in place. Profiles must arrive in creation order;
// ties keep their relative order.
func Sort(profiles []renter.Profile, by SortBy) {
	switch by {
	case SortBudgetLow:
		sort.SliceStable(profiles, func(i, j int) bool {
			return profiles[i].BudgetMin < profiles[j].BudgetMin
		})
	case SortBudgetHigh:
		sort.SliceStable(profiles, func(i, j int) bool {
			return profiles[i].BudgetMin > profiles[j].BudgetMin
		})
	case SortMoveInDate:
		sort.SliceStable(profiles, func(i, j int) bool {
			a, b := profiles[i].MoveInDate, profiles[j].MoveInDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	default:
		sort.SliceStable(profiles, func(i, j int) bool {
			return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
		})
	}
}
