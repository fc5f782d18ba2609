package user

import (
	"context"
	"net/http"

	"healthtrack/internal/platform/apperror"
	"healthtrack/internal/platform/httpx"
)

// Session identity is owned by the presentation layer, which passes it on
// every request in these headers.
const (
	HeaderUsername = "X-Username"
	HeaderRole     = "X-Role"
)

type Identity struct {
	Username string
	Role     Role
}

type identityKey struct{}

// IdentityFromContext returns the identity stored by RequireRole.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireRole rejects requests whose caller identity is missing or does not
// carry role.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Identity{
				Username: r.Header.Get(HeaderUsername),
				Role:     Role(r.Header.Get(HeaderRole)),
			}
			if id.Username == "" || !id.Role.Valid() {
				httpx.Error(w, apperror.Forbidden("caller identity required"))
				return
			}
			if id.Role != role {
				httpx.Error(w, apperror.Forbidden("only a "+string(role)+" may do this"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}
