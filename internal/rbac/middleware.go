package rbac

import (
	"log/slog"
	"net/http"

	"github.com/mentorhub/mentorhub/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. Unlike a
// database-backed RBAC, the catalog is static, so checks never fail with
// an internal error.
type Middleware struct {
	Logger *slog.Logger
}

// ContextFor builds the per-request AccessContext from the session.
// Anonymous requests yield a zero context with an invalid role, which the
// checker rejects for every permission.
func ContextFor(r *http.Request) AccessContext {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == "" {
		return AccessContext{}
	}
	return AccessContext{
		UserID:    sess.UserID(),
		Role:      Role(sess.Role()),
		SessionID: sess.ID,
	}
}

// RequireAuthenticated rejects anonymous requests with 401.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx := ContextFor(r); ctx.UserID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the current user has at least one of the required
// permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor := ContextFor(r)
			if actor.UserID == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range perms {
				if HasPermission(actor, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.String("user_id", actor.UserID),
					slog.String("role", string(actor.Role)),
					slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ContextFor(r)
			if actor.UserID == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range perms {
				if !HasPermission(actor, p) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
