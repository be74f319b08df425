package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproject-backend-go/internal/models"
)

func TestAuthorize_Matrix(t *testing.T) {
	tests := []struct {
		role   models.Role
		action Action
		want   Scope
	}{
		{models.RoleSuperAdmin, ActionCompanyCreate, ScopePlatform},
		{models.RoleSuperAdmin, CreateUserAction(models.RoleTechnician), ScopeNone},
		{models.RoleAdmin, CreateUserAction(models.RoleAdmin), ScopeTenant},
		{models.RoleAdmin, CreateUserAction(models.RoleManager), ScopeTenant},
		{models.RoleAdmin, CreateUserAction(models.RoleCoordinator), ScopeTenant},
		{models.RoleAdmin, CreateUserAction(models.RoleTechnician), ScopeTenant},
		{models.RoleAdmin, ActionCompanyCreate, ScopeNone},
		{models.RoleManager, CreateUserAction(models.RoleTechnician), ScopeManagedTeams},
		{models.RoleManager, CreateUserAction(models.RoleCoordinator), ScopeNone},
		{models.RoleManager, CreateUserAction(models.RoleAdmin), ScopeNone},
		{models.RoleManager, ActionUserAssignManagedTeams, ScopeNone},
		{models.RoleCoordinator, CreateUserAction(models.RoleTechnician), ScopeNone},
		{models.RoleCoordinator, ActionProjectManage, ScopeTenant},
		{models.RoleTechnician, ActionProjectMove, ScopeTenant},
		{models.RoleTechnician, ActionProjectManage, ScopeNone},
		{models.Role("intruder"), ActionProjectView, ScopeNone},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			got, err := Authorize(tt.role, tt.action)
			assert.Equal(t, tt.want, got)
			if tt.want == ScopeNone {
				assert.True(t, errors.Is(err, ErrPermissionDenied))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckTeamScope(t *testing.T) {
	gestor := &models.CompanyUser{ManagedTeamIDs: []string{"#1", "#3"}}

	assert.NoError(t, CheckTeamScope(ScopeTenant, nil, []string{"#9"}))
	assert.NoError(t, CheckTeamScope(ScopeManagedTeams, gestor, []string{"#1", "#3"}))

	err := CheckTeamScope(ScopeManagedTeams, gestor, []string{"#1", "#2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfScope)
	assert.Equal(t, CodePermissionDenied, CodeOf(err))

	assert.ErrorIs(t, CheckTeamScope(ScopeNone, gestor, nil), ErrPermissionDenied)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeUnauthenticated, CodeOf(ErrProfileInactive))
	assert.Equal(t, CodeAlreadyExists, CodeOf(ErrEmailAlreadyExists))
	assert.Equal(t, CodeFailedPrecondition, CodeOf(ErrTeamInUse))
	assert.Equal(t, CodeInvalidArgument, CodeOf(invalidArgument("x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))

	assert.Equal(t, "no-tenant-mapping", SessionRejectReason(ErrNoTenantMapping))
	assert.Equal(t, "", SessionRejectReason(ErrNotFound))
}
