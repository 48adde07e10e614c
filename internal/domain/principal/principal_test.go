package principal

import (
	"context"
	"testing"

	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

func TestFromClaims(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		role     Role
		tier     string
		verified bool
		want     Principal
		wantErr  bool
	}{
		{"premium renter", "r1", RoleRenter, "premium", true, Renter{UserID: "r1", Tier: renter.TierPremium, Verified: true}, false},
		{"renter defaults to free", "r2", RoleRenter, "", false, Renter{UserID: "r2", Tier: renter.TierFree}, false},
		{"renter bad tier", "r3", RoleRenter, "gold", false, nil, true},
		{"verified owner", "o1", RoleOwner, "", true, Owner{UserID: "o1", Verified: true}, false},
		{"admin", "a1", RoleAdmin, "", false, Admin{UserID: "a1"}, false},
		{"unknown role", "x", "landlord", "", false, nil, true},
		{"missing subject", "", RoleOwner, "", true, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromClaims(tt.id, tt.role, tt.tier, tt.verified)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromClaims() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FromClaims() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal in empty context")
	}

	ctx := NewContext(context.Background(), Owner{UserID: "o1", Verified: true})
	p, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.ID() != "o1" || p.Role() != RoleOwner {
		t.Errorf("got %s/%s", p.ID(), p.Role())
	}
}
