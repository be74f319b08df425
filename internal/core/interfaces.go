package core

import (
	"context"

	"flowproject-backend-go/internal/models"
)

// SessionService resolves who a verified Firebase UID is inside the platform.
type SessionService interface {
	Resolve(ctx context.Context, uid string) (*Session, error)
}

// ProvisioningService implements the two privileged account-creation procedures.
type ProvisioningService interface {
	CreateUserInTenant(ctx context.Context, callerUID string, req models.CreateUserRequest) (*models.ProvisionResult, error)
	CreateCompanyWithAdmin(ctx context.Context, callerUID string, req models.CreateCompanyRequest) (*models.ProvisionResult, error)
	// BootstrapCompany runs CreateCompanyWithAdmin on behalf of an operator with direct
	// database access, skipping the super-admin check.
	BootstrapCompany(ctx context.Context, operator string, req models.CreateCompanyRequest) (*models.ProvisionResult, error)
}

// CompanyService is the super-admin view over tenants.
type CompanyService interface {
	ListCompanies(ctx context.Context, s *Session) ([]*models.Company, error)
	GetCompany(ctx context.Context, s *Session, companyID string) (*models.Company, error)
	SetCompanyActive(ctx context.Context, s *Session, companyID string, active bool) error
}

// UserService manages CompanyUser profiles inside the caller's tenant.
type UserService interface {
	ListUsers(ctx context.Context, s *Session) ([]*models.CompanyUser, error)
	GetUser(ctx context.Context, s *Session, uid string) (*models.CompanyUser, error)
	UpdateUser(ctx context.Context, s *Session, uid string, req models.UpdateUserRequest) (*models.CompanyUser, error)
	SetManagedTeams(ctx context.Context, s *Session, uid string, teamIDs []string) (*models.CompanyUser, error)
}

// TeamService manages teams inside the caller's tenant.
type TeamService interface {
	CreateTeam(ctx context.Context, s *Session, req models.CreateTeamRequest) (*models.Team, error)
	ListTeams(ctx context.Context, s *Session) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, s *Session, teamID string, req models.UpdateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, s *Session, teamID string) error
}

// ProjectService manages projects and kanban moves inside the caller's tenant.
type ProjectService interface {
	CreateProject(ctx context.Context, s *Session, req models.CreateProjectRequest) (*models.Project, error)
	ListProjects(ctx context.Context, s *Session) ([]*models.Project, error)
	GetProject(ctx context.Context, s *Session, projectID string) (*models.Project, error)
	UpdateProject(ctx context.Context, s *Session, projectID string, req models.UpdateProjectRequest) (*models.Project, error)
	DeleteProject(ctx context.Context, s *Session, projectID string) error
	// MoveProject applies a kanban drop. It reports whether anything was written.
	MoveProject(ctx context.Context, s *Session, projectID string, req models.MoveProjectRequest) (bool, error)
	// Board returns one partitioned snapshot filtered by query.
	Board(ctx context.Context, s *Session, query string) (*Board, error)
	// TeamNames maps team ids to names for board filtering.
	TeamNames(ctx context.Context, s *Session) (map[string]string, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, companyID string, logEntry models.AuditLog) error
}

// IdentityProvider is the subset of Firebase Auth the provisioning procedures need.
type IdentityProvider interface {
	// CreateUser returns ErrEmailAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// EventPublisher delivers provisioning events. Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishUserProvisioned(ctx context.Context, evt models.UserProvisionedEvent) error
}

// MembershipCache caches the immutable uid → companyId mapping.
type MembershipCache interface {
	GetCompanyID(ctx context.Context, uid string) (string, bool)
	SetCompanyID(ctx context.Context, uid, companyID string)
	Delete(ctx context.Context, uid string)
}
