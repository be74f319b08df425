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

type teamService struct {
	teams  db.TeamRepository
	users  db.CompanyUserRepository
	audit  AuditService
	logger *zap.Logger
}

// NewTeamService creates a TeamService.
func NewTeamService(tr db.TeamRepository, ur db.CompanyUserRepository, audit AuditService, logger *zap.Logger) TeamService {
	return &teamService{teams: tr, users: ur, audit: audit, logger: logger}
}

func (s *teamService) CreateTeam(ctx context.Context, sess *Session, req models.CreateTeamRequest) (*models.Team, error) {
	if err := authorizeMember(sess, ActionTeamManage); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArgument("team name is required")
	}
	team := &models.Team{Name: name, Active: true, CreatedBy: sess.UID}
	if err := s.teams.CreateWithNextNumber(ctx, sess.CompanyID, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, sess *Session) ([]*models.Team, error) {
	if err := authorizeMember(sess, ActionTeamList); err != nil {
		return nil, err
	}
	teams, err := s.teams.List(ctx, sess.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, sess *Session, teamID string, req models.UpdateTeamRequest) (*models.Team, error) {
	if err := authorizeMember(sess, ActionTeamManage); err != nil {
		return nil, err
	}
	team, err := s.getTeam(ctx, sess.CompanyID, teamID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalidArgument("team name cannot be empty")
		}
		team.Name = name
	}
	if req.Active != nil {
		team.Active = *req.Active
	}
	if err := s.teams.Update(ctx, sess.CompanyID, team); err != nil {
		return nil, fmt.Errorf("failed to update team '%s': %w", teamID, err)
	}
	return team, nil
}

// DeleteTeam refuses while any user still references the team, through teamIds or the legacy
// teamId field.
func (s *teamService) DeleteTeam(ctx context.Context, sess *Session, teamID string) error {
	if err := authorizeMember(sess, ActionTeamManage); err != nil {
		return err
	}
	team, err := s.getTeam(ctx, sess.CompanyID, teamID)
	if err != nil {
		return err
	}
	inUse, err := s.users.AnyInTeam(ctx, sess.CompanyID, teamID)
	if err != nil {
		return fmt.Errorf("failed to check members of team '%s': %w", teamID, err)
	}
	if inUse {
		return ErrTeamInUse
	}
	if err := s.teams.Delete(ctx, sess.CompanyID, teamID); err != nil {
		return fmt.Errorf("failed to delete team '%s': %w", teamID, err)
	}
	recordAudit(ctx, s.audit, s.logger, sess.CompanyID, models.AuditLog{
		ActorUID:   sess.UID,
		Action:     AuditTeamDelete,
		TargetType: "TEAM",
		TargetID:   teamID,
		Details:    map[string]interface{}{"name": team.Name},
	})
	return nil
}

func (s *teamService) getTeam(ctx context.Context, companyID, teamID string) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, companyID, teamID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: team '%s'", ErrNotFound, teamID)
		}
		return nil, fmt.Errorf("failed to get team '%s': %w", teamID, err)
	}
	return team, nil
}

// authorizeMember requires a tenant session and looks the action up in the permission matrix.
func authorizeMember(sess *Session, action Action) error {
	_, err := authorizeMemberScope(sess, action)
	return err
}

func authorizeMemberScope(sess *Session, action Action) (Scope, error) {
	if err := requireMember(sess); err != nil {
		return ScopeNone, err
	}
	return Authorize(sess.Role, action)
}
