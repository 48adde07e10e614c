package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Strob0t/RentMatch/internal/domain/principal"
)

// DevAdminID is the principal injected when authentication is disabled.
const DevAdminID = "00000000-0000-0000-0000-000000000000"

// Headers honored only while authentication is disabled, so local clients
// can act as a renter or owner without a token.
const (
	headerDevUser     = "X-Dev-User"
	headerDevRole     = "X-Dev-Role"
	headerDevTier     = "X-Dev-Tier"
	headerDevVerified = "X-Dev-Verified"
)

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/ready": true,
}

// Claims are the principal claims carried by access tokens. Tokens are
// issued by the identity service; this service only verifies them.
type Claims struct {
	Role     string `json:"role"`
	Tier     string `json:"tier,omitempty"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens.
type TokenVerifier struct {
	secret func() string
	issuer string
}

// NewTokenVerifier returns a verifier. secret is read per token so a
// reloaded signing key applies immediately.
func NewTokenVerifier(secret func() string, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, issuer: issuer}
}

// Verify parses tokenStr and returns the principal it names.
func (v *TokenVerifier) Verify(tokenStr string) (principal.Principal, error) {
	key := v.secret()
	if key == "" {
		return nil, errors.New("token verification unavailable")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	p, err := principal.FromClaims(claims.Subject, principal.Role(claims.Role), claims.Tier, claims.Verified)
	if err != nil {
		return nil, fmt.Errorf("invalid token claims: %w", err)
	}
	return p, nil
}

// Auth returns middleware that resolves the request Principal from a Bearer
// token. When authEnabled is false, a default admin (or the X-Dev-* headers)
// is injected instead.
func Auth(v *TokenVerifier, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				p, err := devPrincipal(r)
				if err != nil {
					writeAuthError(w, http.StatusUnauthorized, err.Error())
					return
				}
				next.ServeHTTP(w, r.WithContext(principal.NewContext(r.Context(), p)))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			p, err := v.Verify(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(principal.NewContext(r.Context(), p)))
		})
	}
}

func devPrincipal(r *http.Request) (principal.Principal, error) {
	id := r.Header.Get(headerDevUser)
	if id == "" {
		return principal.Admin{UserID: DevAdminID}, nil
	}
	verified, _ := strconv.ParseBool(r.Header.Get(headerDevVerified))
	return principal.FromClaims(id, principal.Role(r.Header.Get(headerDevRole)), r.Header.Get(headerDevTier), verified)
}

// errorBody mirrors the API error envelope written by the HTTP adapter.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	writeError(w, status, errorBody{Code: "UNAUTHORIZED", Message: msg})
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
