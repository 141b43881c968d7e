package middlewares

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Authenticated rejects requests that did not carry a valid bearer token.
// It must run after jwtauth.Verifier has populated the request context.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil || jwt.Validate(token) != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]any{"detail": "Could not validate credentials."})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Subject returns the authenticated subject (the user's email) from the
// request context, or "" when the request is anonymous or the token is
// invalid. Handlers serving both public and owner views use this instead
// of Authenticated.
func Subject(r *http.Request) string {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil || jwt.Validate(token) != nil {
		return ""
	}
	return token.Subject()
}
