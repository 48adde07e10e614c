package eligibility

import (
	"reflect"
	"testing"

	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

func TestRenterVisible(t *testing.T) {
	tests := []struct {
		name     string
		tier     renter.Tier
		verified bool
		optedIn  bool
		want     Result
	}{
		{"all conditions met", renter.TierPremium, true, true, Result{Eligible: true, Reasons: []Reason{}}},
		{"free tier", renter.TierFree, true, true, Result{Reasons: []Reason{ReasonNeedsPremium}}},
		{"unverified", renter.TierPremium, false, true, Result{Reasons: []Reason{ReasonNeedsVerification}}},
		{"opted out", renter.TierPremium, true, false, Result{Reasons: []Reason{ReasonNotOptedIn}}},
		{"nothing met", renter.TierFree, false, false, Result{Reasons: []Reason{ReasonNeedsPremium, ReasonNeedsVerification, ReasonNotOptedIn}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &renter.Profile{SubscriptionTier: tt.tier, IsVerifiedRenter: tt.verified, ProfileVisibility: tt.optedIn}
			got := RenterVisible(p)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RenterVisible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Flipping any single condition off must make a visible renter ineligible.
func TestRenterVisible_EachConditionRequired(t *testing.T) {
	flips := []func(*renter.Profile){
		func(p *renter.Profile) { p.SubscriptionTier = renter.TierFree },
		func(p *renter.Profile) { p.IsVerifiedRenter = false },
		func(p *renter.Profile) { p.ProfileVisibility = false },
	}
	for i, flip := range flips {
		p := &renter.Profile{SubscriptionTier: renter.TierPremium, IsVerifiedRenter: true, ProfileVisibility: true}
		flip(p)
		if RenterVisible(p).Eligible {
			t.Errorf("flip %d: expected ineligible", i)
		}
	}
}

func TestOwnerMayBrowse(t *testing.T) {
	tests := []struct {
		name   string
		p      principal.Principal
		ok     bool
		reason Reason
	}{
		{"verified owner", principal.Owner{UserID: "o1", Verified: true}, true, ""},
		{"unverified owner", principal.Owner{UserID: "o2"}, false, ReasonOwnerNotVerified},
		{"admin", principal.Admin{UserID: "a1"}, true, ""},
		{"renter", principal.Renter{UserID: "r1", Tier: renter.TierPremium, Verified: true}, false, ReasonNotAnOwner},
		{"nil", nil, false, ReasonNotAnOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OwnerMayBrowse(tt.p)
			if got.Eligible != tt.ok || got.Reason() != tt.reason {
				t.Errorf("OwnerMayBrowse() = %+v, want eligible=%v reason=%q", got, tt.ok, tt.reason)
			}
		})
	}
}

func TestOwnerMayContact(t *testing.T) {
	tests := []struct {
		name   string
		p      principal.Principal
		ok     bool
		reason Reason
	}{
		{"verified owner", principal.Owner{UserID: "o1", Verified: true}, true, ""},
		{"unverified owner", principal.Owner{UserID: "o2"}, false, ReasonOwnerNotVerified},
		{"admin", principal.Admin{UserID: "a1"}, false, ReasonNotAnOwner},
		{"renter", principal.Renter{UserID: "r1"}, false, ReasonNotAnOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OwnerMayContact(tt.p)
			if got.Eligible != tt.ok || got.Reason() != tt.reason {
				t.Errorf("OwnerMayContact() = %+v, want eligible=%v reason=%q", got, tt.ok, tt.reason)
			}
		})
	}
}

func TestRenterOnly(t *testing.T) {
	if !RenterOnly(principal.Renter{UserID: "r1"}).Eligible {
		t.Error("renter should be allowed")
	}
	if got := RenterOnly(principal.Owner{UserID: "o1", Verified: true}); got.Eligible || got.Reason() != ReasonNotARenter {
		t.Errorf("owner: got %+v", got)
	}
}

func TestPrivacy(t *testing.T) {
	p := &renter.Profile{SubscriptionTier: renter.TierPremium, IsVerifiedRenter: true}

	got := Privacy(p)
	if got.ProfileVisibility || got.MarketplaceEligible {
		t.Fatalf("opted-out renter reported visible: %+v", got)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != ReasonNotOptedIn {
		t.Fatalf("reasons = %v, want [not_opted_in]", got.Reasons)
	}

	p.ProfileVisibility = true
	got = Privacy(p)
	if !got.ProfileVisibility || !got.MarketplaceEligible || len(got.Reasons) != 0 {
		t.Fatalf("eligible renter: %+v", got)
	}
	if got.Reasons == nil {
		t.Fatal("reasons must encode as [] not null")
	}
}
