package rbac

import (
	"strings"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Built-in roles recognised when the gateway sends no explicit capabilities.
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleViewer     = "viewer"
)

// RoleGrants maps a role to the capabilities it implies.
type RoleGrants map[string][]string

// DefaultRoleGrants returns the grants used by the API server.
func DefaultRoleGrants() RoleGrants {
	return RoleGrants{
		RoleAdmin:      shared.COAScopes(),
		RoleAccountant: {shared.PermCOAView, shared.PermCOAEdit, shared.PermLinkedEdit},
		RoleViewer:     {shared.PermCOAView},
	}
}

// Resolve returns the capabilities implied by role, or nil for unknown roles.
func (g RoleGrants) Resolve(role string) []string {
	perms := g[strings.ToLower(strings.TrimSpace(role))]
	if len(perms) == 0 {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
