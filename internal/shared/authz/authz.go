// Package authz decides which actor may run which sales operation.
package authz

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role is a coarse permission group assigned by the gateway.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Gateway headers carrying the authenticated identity.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

var (
	// ErrUnauthenticated means no identity was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the identity lacks the required role or ownership.
	ErrForbidden = errors.New("operation not permitted")
)

// Actor is the caller of an operation.
type Actor struct {
	UserID string
	Roles  []Role
}

// Authenticated reports whether a user id was presented.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// HasRole reports whether the actor carries role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// ParseRoles splits a comma separated role list, lowercasing and dropping blanks.
func ParseRoles(raw string) []Role {
	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			roles = append(roles, Role(part))
		}
	}
	return roles
}

// ActorFromRequest reads the gateway identity headers.
func ActorFromRequest(c *gin.Context) Actor {
	return Actor{
		UserID: strings.TrimSpace(c.GetHeader(HeaderUserID)),
		Roles:  ParseRoles(c.GetHeader(HeaderUserRoles)),
	}
}

// RequireAdmin allows only administrators.
func RequireAdmin(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// CanAmendOrder allows admins on any order and other users on orders they placed.
func CanAmendOrder(actor Actor, ownerID string) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if ownerID != "" && ownerID == actor.UserID {
		return nil
	}
	return ErrForbidden
}
