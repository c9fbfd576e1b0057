// Package csrf implements double-submit cookie protection. Every response
// carries a token cookie; unsafe requests must echo the cookie value in a
// header or form field.
package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Names of the cookie, header and form field carrying the token.
const (
	CookieName = "csrftoken"
	HeaderName = "X-CSRFToken"
	FormField  = "csrfmiddlewaretoken"
)

// ErrTokenMismatch is reported when an unsafe request fails the check.
var ErrTokenMismatch = errors.New("csrf: token missing or incorrect")

type ctxKey struct{}

// Token returns the request's CSRF token, or "" outside Protect.
func Token(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Options configures Protect.
type Options struct {
	// Path scopes the cookie. Defaults to "/".
	Path string
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// OnFailure handles rejected requests. Defaults to a plain 403.
	OnFailure func(w http.ResponseWriter, r *http.Request, err error)
}

// Protect issues a token cookie when the request has none and rejects
// unsafe methods whose echoed token does not match the cookie.
func Protect(opts Options) func(http.Handler) http.Handler {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.OnFailure == nil {
		opts.OnFailure = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusForbidden)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(CookieName); err == nil && validToken(c.Value) {
				token = c.Value
			}
			if !safeMethod(r.Method) {
				sent := r.Header.Get(HeaderName)
				if sent == "" {
					sent = r.PostFormValue(FormField)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					opts.OnFailure(w, r, ErrTokenMismatch)
					return
				}
			}
			if token == "" {
				token = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     opts.Path,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Add("Vary", "Cookie")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, token)))
		})
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func validToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
