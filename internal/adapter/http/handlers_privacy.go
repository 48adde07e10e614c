package http

import (
	"net/http"

	"github.com/Strob0t/RentMatch/internal/domain"
)

type privacyUpdate struct {
	ProfileVisibility *bool `json:"profile_visibility"`
}

// GetPrivacySettings handles GET /api/v1/privacy-settings.
func (h *Handlers) GetPrivacySettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Privacy.Settings(r.Context(), caller(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdatePrivacySettings handles PUT /api/v1/privacy-settings.
func (h *Handlers) UpdatePrivacySettings(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[privacyUpdate](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if req.ProfileVisibility == nil {
		writeDomainError(w, r, domain.Validationf("profile_visibility is required"))
		return
	}
	s, err := h.Privacy.Update(r.Context(), caller(r), *req.ProfileVisibility)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
