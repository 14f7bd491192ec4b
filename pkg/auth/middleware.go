package auth

import (
	"context"
	"net/http"

	"github.com/pydist/pydist/pkg/logging"
)

type contextKey string

const UserContextKey = contextKey("user")

// GetUserFromContext returns the authenticated user set by BasicAuthMiddleware,
// or nil when the request carried no (valid) credentials.
func GetUserFromContext(ctx context.Context) *User {
	user, ok := ctx.Value(UserContextKey).(*User)
	if !ok {
		return nil
	}
	return user
}

// BasicAuthMiddleware resolves HTTP Basic credentials into a user on the
// request context. It does not reject unauthenticated requests; handlers
// that need an identity call RequireUser.
func BasicAuthMiddleware(s Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if ok {
				user, err := s.Authenticate(r.Context(), username, password)
				if err != nil {
					logging.FromContext(r.Context()).
						WithField("user", username).
						WithError(err).
						Debug("basic auth failed")
				} else {
					ctx := context.WithValue(r.Context(), UserContextKey, user)
					ctx = logging.AddFields(ctx, logging.Fields{logging.UserFieldKey: user.Username})
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser returns the authenticated user or challenges with 401.
func RequireUser(w http.ResponseWriter, r *http.Request) *User {
	user := GetUserFromContext(r.Context())
	if user == nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="pydist"`)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil
	}
	return user
}
