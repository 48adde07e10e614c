// Package property holds the read-only view of listings owned by the
// property collaborator.
package property

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRented   Status = "rented"
)

// Property is the subset of a listing this service needs.
type Property struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Status  Status `json:"status"`
}

// ContactableBy reports whether ownerID may pitch this listing to renters.
func (p *Property) ContactableBy(ownerID string) bool {
	return p.OwnerID == ownerID && p.Status == StatusActive
}
