// Package authz implements the cascading ownership model and the role-based
// access policy. The policy itself (Authorize) is a pure function; the
// Resolver gathers the ownership facts it consumes.
package authz

import (
	"cf_coach/internal/domain/model"
)

// Role is a closed set. Anything outside it fails ParseRole and is denied by
// the policy's default branch.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleCoach
	RoleStudent
)

func ParseRole(s string) Role {
	switch s {
	case model.RoleAdmin:
		return RoleAdmin
	case model.RoleCoach:
		return RoleCoach
	case model.RoleStudent:
		return RoleStudent
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return model.RoleAdmin
	case RoleCoach:
		return model.RoleCoach
	case RoleStudent:
		return model.RoleStudent
	default:
		return "unknown"
	}
}

// Principal is the acting identity derived from an authenticated session.
// Handle is the linked judge handle, set only for students that linked one.
type Principal struct {
	ID     string
	Role   Role
	Handle string
}
