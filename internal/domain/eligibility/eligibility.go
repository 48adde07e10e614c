// Package eligibility decides who may appear in and who may use the
// reverse marketplace. Evaluations are pure: "not eligible" is a normal
// result carrying reason codes, not an error.
package eligibility

import (
	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

// Reason is a machine-readable explanation for an ineligible result.
type Reason string

const (
	ReasonNeedsPremium      Reason = "needs_premium"
	ReasonNeedsVerification Reason = "needs_verification"
	ReasonNotOptedIn        Reason = "not_opted_in"
	ReasonOwnerNotVerified  Reason = "owner_not_verified"
	ReasonNotAnOwner        Reason = "not_an_owner"
	ReasonNotARenter        Reason = "not_a_renter"
)

// Result is the outcome of an evaluation.
type Result struct {
	Eligible bool     `json:"eligible"`
	Reasons  []Reason `json:"reasons"`
}

// Reason returns the first reason, or "" when eligible.
func (r Result) Reason() Reason {
	if len(r.Reasons) == 0 {
		return ""
	}
	return r.Reasons[0]
}

func result(reasons []Reason) Result {
	if reasons == nil {
		reasons = []Reason{}
	}
	return Result{Eligible: len(reasons) == 0, Reasons: reasons}
}

// RenterVisible reports whether a renter appears in the marketplace:
// premium tier, verified, and opted in. Every missing condition is listed.
func RenterVisible(p *renter.Profile) Result {
	var reasons []Reason
	if p.SubscriptionTier != renter.TierPremium {
		reasons = append(reasons, ReasonNeedsPremium)
	}
	if !p.IsVerifiedRenter {
		reasons = append(reasons, ReasonNeedsVerification)
	}
	if !p.ProfileVisibility {
		reasons = append(reasons, ReasonNotOptedIn)
	}
	return result(reasons)
}

// OwnerMayBrowse reports whether the caller may query the marketplace.
// Admins may browse; renters may not.
func OwnerMayBrowse(p principal.Principal) Result {
	switch v := p.(type) {
	case principal.Owner:
		if !v.Verified {
			return result([]Reason{ReasonOwnerNotVerified})
		}
		return result(nil)
	case principal.Admin:
		return result(nil)
	case principal.Renter:
		return result([]Reason{ReasonNotAnOwner})
	default:
		return result([]Reason{ReasonNotAnOwner})
	}
}

// OwnerMayContact reports whether the caller may pitch a property to a
// renter. Only verified owners can; admins hold no properties.
func OwnerMayContact(p principal.Principal) Result {
	switch v := p.(type) {
	case principal.Owner:
		if !v.Verified {
			return result([]Reason{ReasonOwnerNotVerified})
		}
		return result(nil)
	case principal.Admin, principal.Renter:
		return result([]Reason{ReasonNotAnOwner})
	default:
		return result([]Reason{ReasonNotAnOwner})
	}
}

// RenterOnly reports whether the caller is a renter managing their own
// privacy settings.
func RenterOnly(p principal.Principal) Result {
	switch p.(type) {
	case principal.Renter:
		return result(nil)
	case principal.Owner, principal.Admin:
		return result([]Reason{ReasonNotARenter})
	default:
		return result([]Reason{ReasonNotARenter})
	}
}

// PrivacySettings is what a renter sees about their own marketplace presence.
type PrivacySettings struct {
	ProfileVisibility   bool     `json:"profile_visibility"`
	MarketplaceEligible bool     `json:"marketplace_eligible"`
	Reasons             []Reason `json:"reasons"`
}

// Privacy summarizes p's consent flag and visibility outcome.
func Privacy(p *renter.Profile) PrivacySettings {
	r := RenterVisible(p)
	return PrivacySettings{
		ProfileVisibility:   p.ProfileVisibility,
		MarketplaceEligible: r.Eligible,
		Reasons:             r.Reasons,
	}
}
