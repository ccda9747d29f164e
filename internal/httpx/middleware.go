package httpx

import (
	"context"
	"net/http"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/users"
)

// The auth proxy in front of this service verifies tokens and forwards the
// subject in these headers. The core trusts them as pre-authenticated.
const (
	HeaderSubjectID = "X-Subject-Id"
	HeaderEmail     = "X-Subject-Email"
)

type UserSource interface {
	BySubject(ctx context.Context, subjectID string) (users.User, error)
}

// Identity resolves the forwarded subject to a store user and attaches the
// principal to the request context.
type Identity struct {
	Users UserSource
}

func (i *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(HeaderSubjectID)
		if subject == "" {
			writeError(w, http.StatusUnauthorized, "auth/no-identity", "No verified identity on request")
			return
		}
		u, err := i.Users.BySubject(r.Context(), subject)
		if err != nil {
			writeErr(w, err)
			return
		}
		p := auth.Principal{
			UserID:    u.ID,
			SubjectID: subject,
			Email:     r.Header.Get(HeaderEmail),
			Role:      u.Role,
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// RequireRole gates a route subtree on the access gate.
func RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "auth/no-identity", "No verified identity on request")
				return
			}
			if err := auth.Authorize(p.Role, role); err != nil {
				writeErr(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "auth/no-identity", "No verified identity on request")
	}
	return p, ok
}
