package db

import (
	"context"

	"flowproject-backend-go/internal/models"
)

// PlatformUserRepository reads and writes platformUsers/{uid}.
type PlatformUserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.PlatformUser, error)
	Set(ctx context.Context, user *models.PlatformUser) error
}

// MembershipRepository reads the userCompanies/{uid} tenant index.
type MembershipRepository interface {
	GetCompanyID(ctx context.Context, uid string) (string, error)
}

// CompanyRepository defines storage operations for tenant root documents.
type CompanyRepository interface {
	GetByID(ctx context.Context, companyID string) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	SetActive(ctx context.Context, companyID string, active bool) error
	// CreateWithAdmin writes the company, the admin's userCompanies mapping and the admin profile
	// in one transaction. It returns ErrAlreadyExists without writing if the company exists.
	CreateWithAdmin(ctx context.Context, company *models.Company, admin *models.CompanyUser) error
}

// CompanyUserRepository defines storage operations for companies/{companyId}/users.
type CompanyUserRepository interface {
	GetByID(ctx context.Context, companyID, uid string) (*models.CompanyUser, error)
	List(ctx context.Context, companyID string) ([]*models.CompanyUser, error)
	// CreateWithMembership writes userCompanies/{uid} and the profile in one transaction.
	CreateWithMembership(ctx context.Context, companyID string, user *models.CompanyUser) error
	Update(ctx context.Context, companyID string, user *models.CompanyUser) error
	SetManagedTeams(ctx context.Context, companyID, uid string, teamIDs []string) error
	AnyInTeam(ctx context.Context, companyID, teamID string) (bool, error)
}

// TeamRepository defines storage operations for companies/{companyId}/teams.
type TeamRepository interface {
	// CreateWithNextNumber assigns team.ID = "#N" and team.Number = N from counters/teams.
	CreateWithNextNumber(ctx context.Context, companyID string, team *models.Team) error
	GetByID(ctx context.Context, companyID, teamID string) (*models.Team, error)
	List(ctx context.Context, companyID string) ([]*models.Team, error)
	Update(ctx context.Context, companyID string, team *models.Team) error
	Delete(ctx context.Context, companyID, teamID string) error
}

// ProjectRepository defines storage operations for companies/{companyId}/projects.
type ProjectRepository interface {
	// CreateWithNextNumber assigns project.ID = project.ProjectID = "#N" and project.Number = N
	// from counters/projects inside a single transaction.
	CreateWithNextNumber(ctx context.Context, companyID string, project *models.Project) error
	GetByID(ctx context.Context, companyID, projectID string) (*models.Project, error)
	List(ctx context.Context, companyID string) ([]*models.Project, error)
	// Update writes the set fields of the patch only. Fields left nil keep their stored value.
	Update(ctx context.Context, companyID, projectID string, patch models.ProjectPatch) error
	UpdateStatus(ctx context.Context, companyID, projectID string, status models.ProjectStatus, updatedBy string) error
	Delete(ctx context.Context, companyID, projectID string) error
	// Watch blocks, calling onSnapshot with the full project list (newest first) on every change,
	// until ctx is cancelled or the listener fails.
	Watch(ctx context.Context, companyID string, onSnapshot func([]*models.Project)) error
}

// AuditRepository defines storage operations for companies/{companyId}/auditLogs.
type AuditRepository interface {
	Create(ctx context.Context, companyID string, logEntry models.AuditLog) error
}
