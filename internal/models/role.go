package models

import "fmt"

// Role is the closed set of roles a principal can hold. SuperAdmin lives in
// platformUsers; every other role lives on a CompanyUser document.
type Role string

const (
	RoleSuperAdmin  Role = "superadmin"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "gestor"
	RoleCoordinator Role = "coordenador"
	RoleTechnician  Role = "tecnico"
)

// TenantRoles are the roles that can be stored on a CompanyUser profile.
var TenantRoles = []Role{RoleAdmin, RoleManager, RoleCoordinator, RoleTechnician}

// ParseTenantRole validates a role string coming from a request body.
func ParseTenantRole(s string) (Role, error) {
	for _, r := range TenantRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown tenant role %q", s)
}

// RequiresTeam reports whether profiles with this role must belong to at least one team.
func (r Role) RequiresTeam() bool {
	return r != RoleAdmin
}
