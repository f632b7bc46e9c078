package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/qr-attendance-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole lets the request through when the token's role is one of roles.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, auth.ErrAccessForbidden)
				return
			}

			for _, role := range roles {
				if auth.Role(roleStr) == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.HandleError(w, auth.ErrAccessForbidden)
		})
	}
}

// AdminOnly requires the admin role
func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(auth.RoleAdmin)(next)
}

// SubjectFromContext returns the "sub" claim of the verified token.
func SubjectFromContext(r *http.Request) string {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return ""
	}
	return token.Subject()
}
