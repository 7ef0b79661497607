package gate

import (
	"context"
	"net/http"
	"strings"

	"github.com/jobbyai/planguard/pkg/entitlement"
)

// HeaderUserID carries the authenticated user id set by the upstream gateway.
const HeaderUserID = "X-User-ID"

type (
	userIDKey struct{}
	resultKey struct{}
)

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id stored by RequireUser.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// WithResult returns a copy of ctx carrying the reservation for the request.
func WithResult(ctx context.Context, res *entitlement.Result) context.Context {
	return context.WithValue(ctx, resultKey{}, res)
}

// ResultFromContext returns the reservation made by RequireQuota, if any.
func ResultFromContext(ctx context.Context) (*entitlement.Result, bool) {
	res, ok := ctx.Value(resultKey{}).(*entitlement.Result)
	return res, ok && res != nil
}

// RequireUser rejects requests without an X-User-ID header.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			_ = Fail(ErrUnauthorized).Render(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
