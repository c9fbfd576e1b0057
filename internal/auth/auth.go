// Package auth identifies the requesting user and answers permission
// questions for admin views.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated means the request carries no valid session.
	ErrUnauthenticated = errors.New("auth: authentication required")
	// ErrPermissionDenied means the user lacks a required permission.
	ErrPermissionDenied = errors.New("auth: permission denied")
)

// Actions checked by admin views.
const (
	ActionAdd    = "add"
	ActionChange = "change"
	ActionDelete = "delete"
	ActionView   = "view"
)

// Perm returns the permission codename "app.action_model".
func Perm(app, action, model string) string {
	return app + "." + action + "_" + model
}

// User is an admin account.
type User struct {
	Username    string
	Superuser   bool
	Active      bool
	Permissions []string
}

// HasPerm reports whether u holds the permission codename perm. Active
// superusers hold every permission; inactive users hold none.
func (u *User) HasPerm(perm string) bool {
	if u == nil || !u.Active {
		return false
	}
	if u.Superuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Can reports whether u may perform action on app.model.
func (u *User) Can(action, app, model string) bool {
	return u.HasPerm(Perm(app, action, model))
}

// Directory looks up users by name.
type Directory interface {
	User(username string) (*User, bool)
}

type ctxKey struct{}

// NewContext returns a context carrying u.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

// SessionCookie is the cookie holding the session token.
const SessionCookie = "exadmin_session"

// Middleware resolves the session token from the session cookie or a
// Bearer Authorization header and stores the user in the request context.
// Requests without a valid session pass through anonymously; views decide
// whether that is acceptable.
func Middleware(tokens *Tokens, dir Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			username, err := tokens.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			u, ok := dir.User(username)
			if !ok || !u.Active {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), u)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
