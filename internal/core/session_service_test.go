package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowproject-backend-go/internal/models"
)

func TestResolve_SuperAdmin(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.sessions.Resolve(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, SessionSuperAdmin, s.Kind)
	assert.Equal(t, models.RoleSuperAdmin, s.Role)
	assert.Empty(t, s.CompanyID)
}

func TestResolve_InactiveSuperAdminFallsThroughToTenant(t *testing.T) {
	env := newTestEnv(t)
	env.store.platform["admin-1"] = models.PlatformUser{UID: "admin-1", Role: models.RoleSuperAdmin, Active: false}

	s, err := env.sessions.Resolve(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, SessionMember, s.Kind)
	assert.Equal(t, models.RoleAdmin, s.Role)
}

func TestResolve_Member(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.sessions.Resolve(context.Background(), "gestor-1")
	require.NoError(t, err)
	assert.Equal(t, SessionMember, s.Kind)
	assert.Equal(t, testCompany, s.CompanyID)
	assert.Equal(t, models.RoleManager, s.Role)
	require.NotNil(t, s.Profile)
	assert.Equal(t, []string{"#1"}, s.Profile.ManagedTeamIDs)
}

func TestResolve_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.store.memberships["orphan"] = testCompany
	inactive := env.store.users[testCompany]["tec-1"]
	inactive.Active = false
	env.store.users[testCompany]["tec-1"] = inactive

	tests := []struct {
		uid    string
		want   error
		reason string
	}{
		{"stranger", ErrNoTenantMapping, "no-tenant-mapping"},
		{"orphan", ErrProfileNotFound, "profile-not-found"},
		{"tec-1", ErrProfileInactive, "profile-inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			_, err := env.sessions.Resolve(context.Background(), tt.uid)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, tt.reason, SessionRejectReason(err))
		})
	}
}

func TestResolve_UsesMembershipCache(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Resolve(context.Background(), "coord-1")
	require.NoError(t, err)
	assert.Equal(t, testCompany, env.cache.data["coord-1"])

	delete(env.store.memberships, "coord-1")
	s, err := env.sessions.Resolve(context.Background(), "coord-1")
	require.NoError(t, err)
	assert.Equal(t, testCompany, s.CompanyID)
	assert.Equal(t, 1, env.cache.hits)
}
