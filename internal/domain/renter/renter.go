// Package renter defines the renter profile as owned by the renter.
package renter

import (
	"errors"
	"fmt"
	"time"
)

// Tier is a renter's subscription tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// ValidTiers is the set of recognized subscription tiers.
var ValidTiers = map[Tier]bool{
	TierFree:    true,
	TierPremium: true,
}

// BHK is a unit layout a renter is looking for ("1BHK", "2BHK", ...).
type BHK string

const (
	BHK1RK   BHK = "1RK"
	BHK1     BHK = "1BHK"
	BHK2     BHK = "2BHK"
	BHK3     BHK = "3BHK"
	BHK4Plus BHK = "4BHK+"
)

// ValidBHK is the set of recognized layouts.
var ValidBHK = map[BHK]bool{
	BHK1RK:   true,
	BHK1:     true,
	BHK2:     true,
	BHK3:     true,
	BHK4Plus: true,
}

// EmploymentType describes how a renter earns an income.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentStudent      EmploymentType = "student"
	EmploymentOther        EmploymentType = "other"
)

// ValidEmploymentTypes is the set of recognized employment types.
var ValidEmploymentTypes = map[EmploymentType]bool{
	EmploymentSalaried:     true,
	EmploymentSelfEmployed: true,
	EmploymentStudent:      true,
	EmploymentOther:        true,
}

// Profile is the full renter record. Identity and contact fields are
// private to the renter and must never reach an owner.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Documents []string `json:"documents,omitempty"`

	SubscriptionTier   Tier           `json:"subscription_tier"`
	IsVerifiedRenter   bool           `json:"is_verified_renter"`
	ProfileVisibility  bool           `json:"profile_visibility"`
	EmploymentType     EmploymentType `json:"employment_type"`
	IncomeRange        string         `json:"income_range"`
	LookingFor         []BHK          `json:"looking_for"`
	BudgetMin          int64          `json:"budget_min"`
	BudgetMax          int64          `json:"budget_max"`
	PreferredLocations []string       `json:"preferred_locations"`
	MoveInDate         *time.Time     `json:"move_in_date,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Validate checks the marketplace fields of a profile.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if !ValidTiers[p.SubscriptionTier] {
		return fmt.Errorf("invalid subscription tier: %q", p.SubscriptionTier)
	}
	if p.EmploymentType != "" && !ValidEmploymentTypes[p.EmploymentType] {
		return fmt.Errorf("invalid employment type: %q", p.EmploymentType)
	}
	for _, b := range p.LookingFor {
		if !ValidBHK[b] {
			return fmt.Errorf("invalid bhk type: %q", b)
		}
	}
	if p.BudgetMin < 0 || p.BudgetMax < 0 {
		return errors.New("budget must be >= 0")
	}
	if p.BudgetMax > 0 && p.BudgetMax < p.BudgetMin {
		return errors.New("budget_max must be >= budget_min")
	}
	return nil
}
