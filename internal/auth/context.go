package auth

import "context"

type contextKey struct{}

// ContextWithUser returns a copy of ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the authenticated user placed by the
// authentication middleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok && u != nil
}

// actorID returns the ID of the user in ctx, or "" for system actions.
func actorID(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return ""
}
