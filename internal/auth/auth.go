// FilePath: internal/auth/auth.go
package auth

import (
	"context"

	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// RoleAdmin grants access to every drone regardless of ownership
const RoleAdmin = "admin"

// User is the authenticated caller identity attached to a request or a
// websocket connection
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role == RoleAdmin {
			return true
		}
	}
	return false
}

// CanAct reports whether the caller may act on the drone: admins always,
// everyone else only on drones they own. Pure, no side effects.
func CanAct(user *User, drone *models.Drone) bool {
	if user == nil || drone == nil {
		return false
	}
	return user.IsAdmin() || user.ID == drone.OwnerID
}

// EffectiveRoles returns the user's roles plus "owner" when the drone belongs
// to them. Used for role-scoped field filtering.
func EffectiveRoles(user *User, drone *models.Drone) []string {
	roles := append([]string{}, user.Roles...)
	if drone != nil && user.ID == drone.OwnerID {
		roles = append(roles, "owner")
	}
	return roles
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser attaches the caller identity to the context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the caller identity from the context
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}
