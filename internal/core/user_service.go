package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

type userService struct {
	users  db.CompanyUserRepository
	teams  db.TeamRepository
	audit  AuditService
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(ur db.CompanyUserRepository, tr db.TeamRepository, audit AuditService, logger *zap.Logger) UserService {
	return &userService{users: ur, teams: tr, audit: audit, logger: logger}
}

// ListUsers returns every profile for admins and, for gestores, only profiles sharing one of
// their managed teams.
func (s *userService) ListUsers(ctx context.Context, sess *Session) ([]*models.CompanyUser, error) {
	scope, err := authorizeMemberScope(sess, ActionUserList)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, sess.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if scope != ScopeManagedTeams {
		return users, nil
	}
	visible := make([]*models.CompanyUser, 0, len(users))
	for _, u := range users {
		if u.InTeam(sess.Profile.ManagedTeamIDs) {
			visible = append(visible, u)
		}
	}
	return visible, nil
}

// GetUser always lets a member read their own profile.
func (s *userService) GetUser(ctx context.Context, sess *Session, uid string) (*models.CompanyUser, error) {
	if err := requireMember(sess); err != nil {
		return nil, err
	}
	if uid == sess.UID {
		return s.getUser(ctx, sess.CompanyID, uid)
	}
	scope, err := Authorize(sess.Role, ActionUserList)
	if err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, sess.CompanyID, uid)
	if err != nil {
		return nil, err
	}
	if scope == ScopeManagedTeams && !user.InTeam(sess.Profile.ManagedTeamIDs) {
		// Hide existence of users outside the caller's teams.
		return nil, fmt.Errorf("%w: user '%s'", ErrNotFound, uid)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, sess *Session, uid string, req models.UpdateUserRequest) (*models.CompanyUser, error) {
	if err := authorizeMember(sess, ActionUserUpdate); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, sess.CompanyID, uid)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalidArgument("name cannot be empty")
		}
		user.Name = name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		role, err := models.ParseTenantRole(strings.TrimSpace(*req.Role))
		if err != nil {
			return nil, invalidArgument("%v", err)
		}
		if uid == sess.UID && role != models.RoleAdmin {
			return nil, ErrSelfLockout
		}
		user.Role = role
	}
	if req.Active != nil {
		if uid == sess.UID && !*req.Active {
			return nil, ErrSelfLockout
		}
		user.Active = *req.Active
	}
	if req.TeamIDs != nil {
		teamIDs := cleanIDs(*req.TeamIDs)
		if err := ensureTeamsExist(ctx, s.teams, sess.CompanyID, teamIDs); err != nil {
			return nil, err
		}
		user.SetTeams(teamIDs)
	}
	if user.Role.RequiresTeam() && len(user.TeamIDs) == 0 {
		return nil, invalidArgument("role '%s' requires at least one team", user.Role)
	}
	if user.Role != models.RoleManager {
		user.ManagedTeamIDs = []string{}
	}

	if err := s.users.Update(ctx, sess.CompanyID, user); err != nil {
		return nil, fmt.Errorf("failed to update user '%s': %w", uid, err)
	}
	recordAudit(ctx, s.audit, s.logger, sess.CompanyID, models.AuditLog{
		ActorUID:   sess.UID,
		Action:     AuditUserUpdate,
		TargetType: "USER",
		TargetID:   uid,
		Details: map[string]interface{}{
			"role":    string(user.Role),
			"active":  user.Active,
			"teamIds": user.TeamIDs,
		},
	})
	return user, nil
}

// SetManagedTeams replaces a gestor's managedTeamIds. It writes no audit entry.
func (s *userService) SetManagedTeams(ctx context.Context, sess *Session, uid string, teamIDs []string) (*models.CompanyUser, error) {
	if err := authorizeMember(sess, ActionUserAssignManagedTeams); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, sess.CompanyID, uid)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleManager {
		return nil, invalidArgument("managed teams only apply to users with role '%s'", models.RoleManager)
	}
	ids := cleanIDs(teamIDs)
	if err := ensureTeamsExist(ctx, s.teams, sess.CompanyID, ids); err != nil {
		return nil, err
	}
	if err := s.users.SetManagedTeams(ctx, sess.CompanyID, uid, ids); err != nil {
		return nil, fmt.Errorf("failed to set managed teams of '%s': %w", uid, err)
	}
	user.ManagedTeamIDs = ids
	return user, nil
}

func (s *userService) getUser(ctx context.Context, companyID, uid string) (*models.CompanyUser, error) {
	user, err := s.users.GetByID(ctx, companyID, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user '%s'", ErrNotFound, uid)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", uid, err)
	}
	return user, nil
}
