package domain

import "context"

// Role is the authorization role carried by a user token.
type Role string

const (
	// RoleAdmin may mutate any document.
	RoleAdmin Role = "admin"
	// RoleUser may mutate only documents they authored.
	RoleUser Role = "user"
)

// User is the authenticated requester. Only the fields needed for
// authorization and author display are modeled.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext extracts the authenticated user.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(User)
	return u, ok
}
