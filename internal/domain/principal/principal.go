// Package principal defines the authenticated caller of a request.
//
// A Principal is one of Renter, Owner or Admin. The set is closed: code that
// needs role-specific behavior switches on the concrete type.
package principal

import (
	"context"
	"fmt"

	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

// Role names the principal variant as carried in tokens.
type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller.
type Principal interface {
	ID() string
	Role() Role
	sealed()
}

// Renter is a renter acting on their own profile.
type Renter struct {
	UserID   string
	Tier     renter.Tier
	Verified bool
}

// Owner is a property owner browsing or contacting renters.
type Owner struct {
	UserID   string
	Verified bool
}

// Admin is an operator account.
type Admin struct {
	UserID string
}

func (r Renter) ID() string { return r.UserID }
func (r Renter) Role() Role { return RoleRenter }
func (Renter) sealed()      {}

func (o Owner) ID() string { return o.UserID }
func (o Owner) Role() Role { return RoleOwner }
func (Owner) sealed()      {}

func (a Admin) ID() string { return a.UserID }
func (a Admin) Role() Role { return RoleAdmin }
func (Admin) sealed()      {}

// FromClaims builds a Principal from verified token claims.
func FromClaims(id string, role Role, tier string, verified bool) (Principal, error) {
	if id == "" {
		return nil, fmt.Errorf("principal: subject is required")
	}
	switch role {
	case RoleRenter:
		t := renter.Tier(tier)
		if t == "" {
			t = renter.TierFree
		}
		if !renter.ValidTiers[t] {
			return nil, fmt.Errorf("principal: invalid tier %q", tier)
		}
		return Renter{UserID: id, Tier: t, Verified: verified}, nil
	case RoleOwner:
		return Owner{UserID: id, Verified: verified}, nil
	case RoleAdmin:
		return Admin{UserID: id}, nil
	default:
		return nil, fmt.Errorf("principal: unknown role %q", role)
	}
}

type ctxKey struct{}

// NewContext returns ctx carrying p.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && p != nil
}
