package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

type provisioningService struct {
	sessions  SessionService
	companies db.CompanyRepository
	users     db.CompanyUserRepository
	teams     db.TeamRepository
	identity  IdentityProvider
	audit     AuditService
	events    EventPublisher
	cache     MembershipCache
	logger    *zap.Logger
}

// NewProvisioningService creates a ProvisioningService. events and cache may be nil.
func NewProvisioningService(
	sessions SessionService,
	cr db.CompanyRepository,
	ur db.CompanyUserRepository,
	tr db.TeamRepository,
	identity IdentityProvider,
	audit AuditService,
	events EventPublisher,
	cache MembershipCache,
	logger *zap.Logger,
) ProvisioningService {
	if cache == nil {
		cache = noopMembershipCache{}
	}
	return &provisioningService{
		sessions:  sessions,
		companies: cr,
		users:     ur,
		teams:     tr,
		identity:  identity,
		audit:     audit,
		events:    events,
		cache:     cache,
		logger:    logger,
	}
}

// CreateUserInTenant creates a Firebase Auth account plus its tenant mapping and profile inside
// the caller's company. The caller must be an active member of req.CompanyID and hold the
// user.create.<role> permission; gestores may only create técnicos inside their managed teams.
func (s *provisioningService) CreateUserInTenant(ctx context.Context, callerUID string, req models.CreateUserRequest) (*models.ProvisionResult, error) {
	if callerUID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthenticated)
	}
	caller, err := s.sessions.Resolve(ctx, callerUID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(caller); err != nil {
		return nil, err
	}

	companyID := strings.TrimSpace(req.CompanyID)
	if companyID == "" {
		return nil, invalidArgument("companyId is required")
	}
	if caller.CompanyID != companyID {
		s.logger.Warn("Cross-tenant user creation rejected",
			zap.String("callerUid", callerUID),
			zap.String("callerCompanyId", caller.CompanyID),
			zap.String("targetCompanyId", companyID))
		return nil, ErrWrongCompany
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, invalidArgument("name is required")
	}
	if !validEmail(email) {
		return nil, invalidArgument("email '%s' is not valid", req.Email)
	}
	role, err := models.ParseTenantRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	teamIDs := cleanIDs(req.TeamIDs)

	scope, err := Authorize(caller.Role, CreateUserAction(role))
	if err != nil {
		s.logger.Warn("User creation denied by permission matrix",
			zap.String("callerUid", callerUID),
			zap.String("callerRole", string(caller.Role)),
			zap.String("targetRole", string(role)))
		return nil, err
	}
	if role.RequiresTeam() && len(teamIDs) == 0 {
		return nil, invalidArgument("role '%s' requires at least one team", role)
	}
	if err := CheckTeamScope(scope, caller.Profile, teamIDs); err != nil {
		s.logger.Warn("User creation outside managed teams rejected",
			zap.String("callerUid", callerUID),
			zap.Strings("teamIds", teamIDs))
		return nil, err
	}
	if err := ensureTeamsExist(ctx, s.teams, companyID, teamIDs); err != nil {
		return nil, err
	}

	password, err := randomPassword()
	if err != nil {
		return nil, err
	}
	uid, err := s.identity.CreateUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	profile := &models.CompanyUser{
		UID:            uid,
		Name:           name,
		Role:           role,
		Email:          email,
		Phone:          strings.TrimSpace(req.Phone),
		Active:         true,
		ManagedTeamIDs: []string{},
		CreatedBy:      callerUID,
	}
	profile.SetTeams(teamIDs)

	if err := s.users.CreateWithMembership(ctx, companyID, profile); err != nil {
		s.rollbackAccount(ctx, uid, err)
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: uid '%s' is already linked to a company", ErrAlreadyExists, uid)
		}
		return nil, fmt.Errorf("failed to write profile for '%s': %w", uid, err)
	}
	s.cache.SetCompanyID(ctx, uid, companyID)

	result, err := s.finish(ctx, callerUID, companyID, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User provisioned",
		zap.String("uid", uid),
		zap.String("companyId", companyID),
		zap.String("role", string(role)),
		zap.String("createdBy", callerUID))
	return result, nil
}

// CreateCompanyWithAdmin creates a tenant and its first admin. Only active platform
// super-admins may call it.
func (s *provisioningService) CreateCompanyWithAdmin(ctx context.Context, callerUID string, req models.CreateCompanyRequest) (*models.ProvisionResult, error) {
	if callerUID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthenticated)
	}
	caller, err := s.sessions.Resolve(ctx, callerUID)
	if err != nil {
		// Anyone who is not an active super-admin gets the same answer.
		if errors.Is(err, ErrUnauthenticated) {
			return nil, ErrNotSuperAdmin
		}
		return nil, err
	}
	if !caller.IsSuperAdmin() {
		s.logger.Warn("Company creation by non super-admin rejected", zap.String("callerUid", callerUID))
		return nil, ErrNotSuperAdmin
	}
	if _, err := Authorize(caller.Role, ActionCompanyCreate); err != nil {
		return nil, err
	}
	return s.createCompany(ctx, callerUID, req)
}

func (s *provisioningService) BootstrapCompany(ctx context.Context, operator string, req models.CreateCompanyRequest) (*models.ProvisionResult, error) {
	if operator == "" {
		operator = "flowctl"
	}
	return s.createCompany(ctx, operator, req)
}

func (s *provisioningService) createCompany(ctx context.Context, actor string, req models.CreateCompanyRequest) (*models.ProvisionResult, error) {
	companyID := strings.TrimSpace(req.CompanyID)
	companyName := strings.TrimSpace(req.CompanyName)
	adminName := strings.TrimSpace(req.Admin.Name)
	adminEmail := strings.ToLower(strings.TrimSpace(req.Admin.Email))

	if !validCompanySlug(companyID) {
		return nil, invalidArgument("companyId '%s' must contain only lowercase letters, digits and hyphens", req.CompanyID)
	}
	if companyName == "" {
		return nil, invalidArgument("companyName is required")
	}
	cnpj := sanitizeCNPJ(req.CNPJ)
	if cnpj != "" && !validCNPJ(cnpj) {
		return nil, invalidArgument("cnpj must have 14 digits")
	}
	if adminName == "" {
		return nil, invalidArgument("admin.name is required")
	}
	if !validEmail(adminEmail) {
		return nil, invalidArgument("admin.email '%s' is not valid", req.Admin.Email)
	}

	// Fail fast before an Auth account exists; the transaction re-checks.
	if _, err := s.companies.GetByID(ctx, companyID); err == nil {
		return nil, ErrCompanyExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to check company '%s': %w", companyID, err)
	}

	password, err := randomPassword()
	if err != nil {
		return nil, err
	}
	uid, err := s.identity.CreateUser(ctx, adminEmail, password, adminName)
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		ID:        companyID,
		Name:      companyName,
		CNPJ:      cnpj,
		Active:    true,
		CreatedBy: actor,
	}
	admin := &models.CompanyUser{
		UID:            uid,
		Name:           adminName,
		Role:           models.RoleAdmin,
		Email:          adminEmail,
		Phone:          strings.TrimSpace(req.Admin.Phone),
		Active:         req.Admin.Active == nil || *req.Admin.Active,
		ManagedTeamIDs: []string{},
		CreatedBy:      actor,
	}
	admin.SetTeams(nil)

	if err := s.companies.CreateWithAdmin(ctx, company, admin); err != nil {
		s.rollbackAccount(ctx, uid, err)
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, ErrCompanyExists
		}
		return nil, fmt.Errorf("failed to create company '%s': %w", companyID, err)
	}
	s.cache.SetCompanyID(ctx, uid, companyID)

	recordAudit(ctx, s.audit, s.logger, companyID, models.AuditLog{
		ActorUID:   actor,
		Action:     AuditCompanyCreate,
		TargetType: "COMPANY",
		TargetID:   companyID,
		Details: map[string]interface{}{
			"name":     companyName,
			"adminUid": uid,
		},
	})

	result, err := s.finish(ctx, actor, companyID, admin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Company provisioned",
		zap.String("companyId", companyID),
		zap.String("adminUid", uid),
		zap.String("createdBy", actor))
	return result, nil
}

// finish generates the reset link, records the audit entry and publishes the provisioning event.
// The account and documents already exist at this point, so only the link is mandatory.
func (s *provisioningService) finish(ctx context.Context, actor, companyID string, profile *models.CompanyUser) (*models.ProvisionResult, error) {
	link, err := s.identity.PasswordResetLink(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("account '%s' was created but the reset link failed: %w", profile.UID, err)
	}

	recordAudit(ctx, s.audit, s.logger, companyID, models.AuditLog{
		ActorUID:   actor,
		Action:     AuditUserCreate,
		TargetType: "USER",
		TargetID:   profile.UID,
		Details: map[string]interface{}{
			"role":    string(profile.Role),
			"teamIds": profile.TeamIDs,
		},
	})

	if s.events != nil {
		evt := models.UserProvisionedEvent{
			Type:       models.EventUserProvisioned,
			UID:        profile.UID,
			Email:      profile.Email,
			Name:       profile.Name,
			Role:       profile.Role,
			CompanyID:  companyID,
			ResetLink:  link,
			CreatedBy:  actor,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishUserProvisioned(ctx, evt); err != nil {
			s.logger.Warn("Failed to publish provisioning event", zap.String("uid", profile.UID), zap.Error(err))
		}
	}

	return &models.ProvisionResult{UID: profile.UID, ResetLink: link}, nil
}

// rollbackAccount deletes an Auth account whose documents could not be written.
func (s *provisioningService) rollbackAccount(ctx context.Context, uid string, cause error) {
	s.cache.Delete(ctx, uid)
	if err := s.identity.DeleteUser(context.WithoutCancel(ctx), uid); err != nil {
		s.logger.Error("Failed to delete orphaned auth account",
			zap.String("uid", uid),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	s.logger.Warn("Deleted auth account after failed provisioning", zap.String("uid", uid), zap.Error(cause))
}

func ensureTeamsExist(ctx context.Context, teams db.TeamRepository, companyID string, teamIDs []string) error {
	for _, id := range teamIDs {
		if _, err := teams.GetByID(ctx, companyID, id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return invalidArgument("team '%s' does not exist", id)
			}
			return fmt.Errorf("failed to check team '%s': %w", id, err)
		}
	}
	return nil
}

// randomPassword is a throwaway credential; users set their own through the reset link.
func randomPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
