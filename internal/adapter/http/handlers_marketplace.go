package http

import (
	"net/http"
	"strings"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/marketplace"
	"github.com/Strob0t/RentMatch/internal/domain/renter"
)

type rentersResponse struct {
	Renters []marketplace.AnonymizedRenterView `json:"renters"`
}

// ListRenters handles GET /api/v1/marketplace/renters.
func (h *Handlers) ListRenters(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	views, err := h.Marketplace.Query(r.Context(), caller(r), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentersResponse{Renters: views})
}

// ContactRenter handles POST /api/v1/marketplace/contact.
func (h *Handlers) ContactRenter(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[contact.CreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	res, err := h.Contacts.Contact(r.Context(), caller(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func parseFilter(r *http.Request) (marketplace.Filter, error) {
	q := r.URL.Query()
	f := marketplace.Filter{
		Location:       strings.TrimSpace(q.Get("location")),
		EmploymentType: renter.EmploymentType(strings.TrimSpace(q.Get("employment_type"))),
		SortBy:         marketplace.SortBy(strings.TrimSpace(q.Get("sort_by"))),
	}
	var err error
	if f.BudgetMin, err = queryInt64(r, "budget_min"); err != nil {
		return f, err
	}
	if f.BudgetMax, err = queryInt64(r, "budget_max"); err != nil {
		return f, err
	}
	for _, b := range queryList(r, "bhk_type") {
		f.BHKTypes = append(f.BHKTypes, renter.BHK(strings.ToUpper(b)))
	}
	return f, nil
}
