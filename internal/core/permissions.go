package core

import (
	"fmt"

	"flowproject-backend-go/internal/models"
)

// Action is something a principal asks to do.
type Action string

const (
	ActionCompanyCreate          Action = "company.create"
	ActionCompanyList            Action = "company.list"
	ActionCompanySetActive       Action = "company.set-active"
	ActionUserList               Action = "user.list"
	ActionUserUpdate             Action = "user.update"
	ActionUserAssignManagedTeams Action = "user.assign-managed-teams"
	ActionTeamManage             Action = "team.manage"
	ActionTeamList               Action = "team.list"
	ActionProjectManage          Action = "project.manage"
	ActionProjectMove            Action = "project.move"
	ActionProjectView            Action = "project.view"
)

// CreateUserAction is the action of creating a tenant user with the given role.
func CreateUserAction(target models.Role) Action {
	return Action("user.create." + string(target))
}

// Scope bounds what an allowed action may touch.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopePlatform covers every tenant.
	ScopePlatform
	// ScopeTenant covers the caller's whole company.
	ScopeTenant
	// ScopeManagedTeams covers only the teams listed in the caller's managedTeamIds.
	ScopeManagedTeams
)

func (s Scope) String() string {
	switch s {
	case ScopePlatform:
		return "platform"
	case ScopeTenant:
		return "tenant"
	case ScopeManagedTeams:
		return "managed-teams"
	}
	return "none"
}

// permissionMatrix is the single source of truth for role × action. Missing entries deny.
var permissionMatrix = map[models.Role]map[Action]Scope{
	models.RoleSuperAdmin: {
		ActionCompanyCreate:    ScopePlatform,
		ActionCompanyList:      ScopePlatform,
		ActionCompanySetActive: ScopePlatform,
	},
	models.RoleAdmin: {
		CreateUserAction(models.RoleAdmin):       ScopeTenant,
		CreateUserAction(models.RoleManager):     ScopeTenant,
		CreateUserAction(models.RoleCoordinator): ScopeTenant,
		CreateUserAction(models.RoleTechnician):  ScopeTenant,
		ActionUserList:                           ScopeTenant,
		ActionUserUpdate:                         ScopeTenant,
		ActionUserAssignManagedTeams:             ScopeTenant,
		ActionTeamManage:                         ScopeTenant,
		ActionTeamList:                           ScopeTenant,
		ActionProjectManage:                      ScopeTenant,
		ActionProjectMove:                        ScopeTenant,
		ActionProjectView:                        ScopeTenant,
	},
	models.RoleManager: {
		CreateUserAction(models.RoleTechnician): ScopeManagedTeams,
		ActionUserList:                          ScopeManagedTeams,
		ActionTeamList:                          ScopeTenant,
		ActionProjectManage:                     ScopeTenant,
		ActionProjectMove:                       ScopeTenant,
		ActionProjectView:                       ScopeTenant,
	},
	models.RoleCoordinator: {
		ActionTeamList:      ScopeTenant,
		ActionProjectManage: ScopeTenant,
		ActionProjectMove:   ScopeTenant,
		ActionProjectView:   ScopeTenant,
	},
	models.RoleTechnician: {
		ActionTeamList:    ScopeTenant,
		ActionProjectMove: ScopeTenant,
		ActionProjectView: ScopeTenant,
	},
}

// Authorize looks up role × action and returns the granted scope, or a permission-denied error.
func Authorize(role models.Role, action Action) (Scope, error) {
	scope := permissionMatrix[role][action]
	if scope == ScopeNone {
		return ScopeNone, fmt.Errorf("%w: role '%s' cannot perform '%s'", ErrPermissionDenied, role, action)
	}
	return scope, nil
}

// CheckTeamScope verifies that every team id falls inside the granted scope.
// Tenant and platform scopes accept any team; managed-teams scope requires membership in
// caller.ManagedTeamIDs.
func CheckTeamScope(scope Scope, caller *models.CompanyUser, teamIDs []string) error {
	switch scope {
	case ScopeTenant, ScopePlatform:
		return nil
	case ScopeManagedTeams:
		if caller == nil {
			return ErrOutOfScope
		}
		managed := make(map[string]struct{}, len(caller.ManagedTeamIDs))
		for _, id := range caller.ManagedTeamIDs {
			managed[id] = struct{}{}
		}
		for _, id := range teamIDs {
			if _, ok := managed[id]; !ok {
				return fmt.Errorf("%w (team '%s')", ErrOutOfScope, id)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: no scope granted", ErrPermissionDenied)
}
