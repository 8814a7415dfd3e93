package middleware

import (
	"context"
	"net/http"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"
)

// SessionReader resolves the user of the gateway's browsing session.
type SessionReader interface {
	UserID() (string, error)
}

// RequireSession rejects requests while no one is signed in and sends the UI
// to the sign-in boundary. The user id is put on the request context.
func RequireSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.UserID()
			if err != nil || userID == "" {
				utils.WriteProblem(w, http.StatusUnauthorized, "Sign in to continue", map[string]interface{}{
					"redirect": domain.RouteSignIn,
				})
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = userID
			}
			l := logger.WithUserID(*logger.WithContext(r.Context()), userID)
			ctx := logger.NewContext(r.Context(), &l)
			ctx = context.WithValue(ctx, domain.UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the id set by RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(domain.UserIDContextKey).(string)
	return id, ok && id != ""
}
