package middleware

import (
	"net/http"

	"github.com/Strob0t/RentMatch/internal/domain/principal"
)

// RequireRole returns middleware that restricts access to principals with one
// of the given roles. Other principals get 403 FORBIDDEN carrying reason.
// Finer checks (verification, tier) stay in the services.
func RequireRole(reason string, roles ...principal.Role) func(http.Handler) http.Handler {
	allowed := make(map[principal.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal.FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			if !allowed[p.Role()] {
				writeError(w, http.StatusForbidden, errorBody{
					Code:    "FORBIDDEN",
					Message: "forbidden",
					Reason:  reason,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
