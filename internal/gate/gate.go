// Package gate decides whether a protected view may render for a session.
//
// Evaluate is pure: it reads a session.Snapshot and a Requirement and returns
// a Decision. Redirects are carried in the Decision for the caller to issue
// once evaluation is done.
package gate

import (
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/session"
)

// Requirement is the access a protected view declares. The zero value admits
// any authenticated session.
type Requirement struct {
	Roles          []models.Role
	SuperAdminOnly bool
}

func AnyRole() Requirement {
	return Requirement{}
}

func RequireRoles(roles ...models.Role) Requirement {
	return Requirement{Roles: roles}
}

func RequireSuperAdmin() Requirement {
	return Requirement{SuperAdminOnly: true}
}

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateForbiddenSuperAdmin
	StateForbiddenRole
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateForbiddenSuperAdmin:
		return "forbidden_super_admin"
	case StateForbiddenRole:
		return "forbidden_role"
	case StateAuthorized:
		return "authorized"
	}
	return "unknown"
}

type Decision struct {
	State State
	// Redirect is set only for StateUnauthenticated.
	Redirect string
	// Fallback is where an access-denied view offers to go. Empty means
	// "go back".
	Fallback string
	User     *models.User
}

func (d Decision) Allowed() bool {
	return d.State == StateAuthorized
}

func (d Decision) Forbidden() bool {
	return d.State == StateForbiddenSuperAdmin || d.State == StateForbiddenRole
}

func Evaluate(snap session.Snapshot, req Requirement) Decision {
	if snap.Loading {
		return Decision{State: StateLoading}
	}
	// A token without a profile is as good as no session.
	if !snap.Authenticated() || snap.User == nil {
		return Decision{State: StateUnauthenticated, Redirect: routes.Login}
	}

	user := snap.User
	if req.SuperAdminOnly && !user.IsSuperAdmin {
		return Decision{
			State:    StateForbiddenSuperAdmin,
			Fallback: routes.Dashboard(*user),
			User:     user,
		}
	}
	if len(req.Roles) > 0 && !user.IsSuperAdmin && !user.HasRole(req.Roles...) {
		return Decision{State: StateForbiddenRole, User: user}
	}
	return Decision{State: StateAuthorized, User: user}
}
