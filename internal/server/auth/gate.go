package auth

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// Requirement is a predicate over already-validated claims. The transport
// layer attaches one per protected method.
type Requirement interface {
	Allows(claims *Claims) bool
}

// Authenticated admits any caller holding a valid token.
type Authenticated struct{}

func (Authenticated) Allows(c *Claims) bool {
	return c != nil && c.Role.Valid()
}

type roleSet struct {
	user, admin, superAdmin bool
}

// RequireRole admits callers whose role is exactly r.
func RequireRole(r models.Role) Requirement {
	return RequireAnyRole(r)
}

// RequireAnyRole admits callers whose role is one of roles. Invalid roles
// in the list are ignored and can never be matched.
func RequireAnyRole(roles ...models.Role) Requirement {
	var s roleSet
	for _, r := range roles {
		switch r {
		case models.RoleUser:
			s.user = true
		case models.RoleAdmin:
			s.admin = true
		case models.RoleSuperAdmin:
			s.superAdmin = true
		}
	}
	return s
}

func (s roleSet) Allows(c *Claims) bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case models.RoleUser:
		return s.user
	case models.RoleAdmin:
		return s.admin
	case models.RoleSuperAdmin:
		return s.superAdmin
	default:
		return false
	}
}

type claimsKey struct{}

// ContextWithClaims stores validated claims for downstream handlers.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns claims stored by ContextWithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
