package middleware

import (
	"context"
	"net/http"

	"github.com/testmatestudio/licensing/internal/app"
	"github.com/testmatestudio/licensing/pkg/apierror"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// AdminTokenHeader carries the admin session token.
const AdminTokenHeader = "X-Admin-Token"

// adminSessionKey is the context key for the authenticated admin session.
const adminSessionKey contextKey = "admin_session"

// AdminAuth authenticates requests with an admin session token. The
// session is re-validated against the store on every call; there is no
// client-side trust.
func AdminAuth(admins *app.AdminService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AdminTokenHeader)

			session, err := admins.Authenticate(r.Context(), token)
			if err != nil {
				if shared.IsStoreUnavailable(err) {
					apierror.New(http.StatusServiceUnavailable, apierror.CodeStoreUnavailable,
						"Session store temporarily unavailable").WriteJSON(w)
					return
				}
				apierror.New(http.StatusUnauthorized, apierror.CodeAuthenticationFailed,
					"Invalid or expired admin session").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), adminSessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSession extracts the authenticated admin session from context, or
// nil when the request did not pass AdminAuth.
func AdminSession(ctx context.Context) *admin.Session {
	session, _ := ctx.Value(adminSessionKey).(*admin.Session)
	return session
}
