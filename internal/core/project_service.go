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

type projectService struct {
	projects db.ProjectRepository
	teams    db.TeamRepository
	audit    AuditService
	logger   *zap.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(pr db.ProjectRepository, tr db.TeamRepository, audit AuditService, logger *zap.Logger) ProjectService {
	return &projectService{projects: pr, teams: tr, audit: audit, logger: logger}
}

// CreateProject stores a project under the next "#N" id of the company counter.
func (s *projectService) CreateProject(ctx context.Context, sess *Session, req models.CreateProjectRequest) (*models.Project, error) {
	if err := authorizeMember(sess, ActionProjectManage); err != nil {
		return nil, err
	}
	project := &models.Project{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		ManagerUID:     strings.TrimSpace(req.ManagerUID),
		CoordinatorUID: strings.TrimSpace(req.CoordinatorUID),
		TeamID:         strings.TrimSpace(req.TeamID),
		TechnicianUIDs: cleanIDs(req.TechnicianUIDs),
		Priority:       models.PriorityMedium,
		Status:         models.StatusToDo,
		Billing:        req.Billing,
		StartDate:      strings.TrimSpace(req.StartDate),
		EndDate:        strings.TrimSpace(req.EndDate),
		CreatedBy:      sess.UID,
	}
	if req.Priority != "" {
		p, err := models.ParsePriority(req.Priority)
		if err != nil {
			return nil, invalidArgument("%v", err)
		}
		project.Priority = p
	}
	if req.Status != "" {
		st, err := models.ParseProjectStatus(req.Status)
		if err != nil {
			return nil, invalidArgument("%v", err)
		}
		project.Status = st
	}
	if err := s.validate(ctx, sess.CompanyID, project); err != nil {
		return nil, err
	}

	if err := s.projects.CreateWithNextNumber(ctx, sess.CompanyID, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.logger.Info("Project created",
		zap.String("companyId", sess.CompanyID),
		zap.String("projectId", project.ProjectID),
		zap.String("createdBy", sess.UID))
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, sess *Session) ([]*models.Project, error) {
	if err := authorizeMember(sess, ActionProjectView); err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx, sess.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *projectService) GetProject(ctx context.Context, sess *Session, projectID string) (*models.Project, error) {
	if err := authorizeMember(sess, ActionProjectView); err != nil {
		return nil, err
	}
	return s.getProject(ctx, sess.CompanyID, projectID)
}

// UpdateProject validates the edit against the stored project but writes only the requested
// fields, so a concurrent move keeps its status.
func (s *projectService) UpdateProject(ctx context.Context, sess *Session, projectID string, req models.UpdateProjectRequest) (*models.Project, error) {
	if err := authorizeMember(sess, ActionProjectManage); err != nil {
		return nil, err
	}
	patch, err := projectPatch(req)
	if err != nil {
		return nil, err
	}
	patch.UpdatedBy = sess.UID

	project, err := s.getProject(ctx, sess.CompanyID, projectID)
	if err != nil {
		return nil, err
	}
	patch.Apply(project)
	if err := s.validate(ctx, sess.CompanyID, project); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, sess.CompanyID, project.ID, patch); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: project '%s'", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to update project '%s': %w", projectID, err)
	}
	return project, nil
}

func projectPatch(req models.UpdateProjectRequest) (models.ProjectPatch, error) {
	trimmed := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	patch := models.ProjectPatch{
		Name:           trimmed(req.Name),
		Description:    trimmed(req.Description),
		ManagerUID:     trimmed(req.ManagerUID),
		CoordinatorUID: trimmed(req.CoordinatorUID),
		TeamID:         trimmed(req.TeamID),
		Billing:        req.Billing,
		StartDate:      trimmed(req.StartDate),
		EndDate:        trimmed(req.EndDate),
	}
	if req.TechnicianUIDs != nil {
		ids := cleanIDs(*req.TechnicianUIDs)
		patch.TechnicianUIDs = &ids
	}
	if req.Priority != nil {
		p, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return patch, invalidArgument("%v", err)
		}
		patch.Priority = &p
	}
	if req.Status != nil {
		st, err := models.ParseProjectStatus(*req.Status)
		if err != nil {
			return patch, invalidArgument("%v", err)
		}
		patch.Status = &st
	}
	return patch, nil
}

func (s *projectService) DeleteProject(ctx context.Context, sess *Session, projectID string) error {
	if err := authorizeMember(sess, ActionProjectManage); err != nil {
		return err
	}
	project, err := s.getProject(ctx, sess.CompanyID, projectID)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, sess.CompanyID, projectID); err != nil {
		return fmt.Errorf("failed to delete project '%s': %w", projectID, err)
	}
	recordAudit(ctx, s.audit, s.logger, sess.CompanyID, models.AuditLog{
		ActorUID:   sess.UID,
		Action:     AuditProjectDelete,
		TargetType: "PROJECT",
		TargetID:   projectID,
		Details:    map[string]interface{}{"name": project.Name},
	})
	return nil
}

// MoveProject writes status, updatedAt and updatedBy only when the drop lands on a column
// other than the one captured at drag start. Without a captured status the stored one is used.
func (s *projectService) MoveProject(ctx context.Context, sess *Session, projectID string, req models.MoveProjectRequest) (bool, error) {
	if err := authorizeMember(sess, ActionProjectMove); err != nil {
		return false, err
	}
	to, err := models.ParseProjectStatus(req.ToStatus)
	if err != nil {
		return false, invalidArgument("%v", err)
	}

	from := models.ProjectStatus(req.FromStatus)
	if from == "" {
		current, err := s.getProject(ctx, sess.CompanyID, projectID)
		if err != nil {
			return false, err
		}
		from = BucketOf(current)
	}
	if from == to {
		return false, nil
	}

	if err := s.projects.UpdateStatus(ctx, sess.CompanyID, projectID, to, sess.UID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, fmt.Errorf("%w: project '%s'", ErrNotFound, projectID)
		}
		return false, fmt.Errorf("failed to move project '%s': %w", projectID, err)
	}
	return true, nil
}

func (s *projectService) Board(ctx context.Context, sess *Session, query string) (*Board, error) {
	projects, err := s.ListProjects(ctx, sess)
	if err != nil {
		return nil, err
	}
	teamNames, err := s.TeamNames(ctx, sess)
	if err != nil {
		return nil, err
	}
	return BuildBoard(projects, teamNames, query), nil
}

func (s *projectService) TeamNames(ctx context.Context, sess *Session) (map[string]string, error) {
	if err := authorizeMember(sess, ActionTeamList); err != nil {
		return nil, err
	}
	teams, err := s.teams.List(ctx, sess.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (s *projectService) validate(ctx context.Context, companyID string, p *models.Project) error {
	if p.Name == "" {
		return invalidArgument("project name is required")
	}
	if p.Billing.Value < 0 || p.Billing.Hours < 0 {
		return invalidArgument("billing value and hours cannot be negative")
	}
	if !validDateRange(p.StartDate, p.EndDate) {
		return invalidArgument("dates must be YYYY-MM-DD and the end date cannot precede the start date")
	}
	if p.TeamID != "" {
		if err := ensureTeamsExist(ctx, s.teams, companyID, []string{p.TeamID}); err != nil {
			return err
		}
	}
	return nil
}

func (s *projectService) getProject(ctx context.Context, companyID, projectID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, companyID, projectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: project '%s'", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to get project '%s': %w", projectID, err)
	}
	return project, nil
}
