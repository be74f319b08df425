package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/models"
)

type firestoreProjectRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreProjectRepository creates a ProjectRepository backed by Firestore.
// Listings skip documents that fail to decode and report them through logger.
func NewFirestoreProjectRepository(client *firestore.Client, logger *zap.Logger) ProjectRepository {
	return &firestoreProjectRepository{client: client, logger: logger}
}

func (r *firestoreProjectRepository) projects(companyID string) *firestore.CollectionRef {
	return companyCollection(r.client, companyID, projectsCollection)
}

// CreateWithNextNumber reads counters/projects, creates projects/#N and bumps the counter in one
// transaction. Firestore retries the function when a concurrent transaction touched the counter,
// so two creations never observe the same value.
func (r *firestoreProjectRepository) CreateWithNextNumber(ctx context.Context, companyID string, project *models.Project) error {
	counterRef := counterDoc(r.client, companyID, projectsCounterDoc)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next, err := nextSequence(tx, counterRef)
		if err != nil {
			return err
		}
		project.Number = next
		project.ProjectID = models.FormatSequenceID(next)
		project.ID = project.ProjectID
		if err := tx.Create(r.projects(companyID).Doc(project.ID), project); err != nil {
			return err
		}
		return writeSequence(tx, counterRef, next+1)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("project '%s' in company '%s': %w", project.ID, companyID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project in company '%s': %w", companyID, err)
	}
	return nil
}

func (r *firestoreProjectRepository) GetByID(ctx context.Context, companyID, projectID string) (*models.Project, error) {
	if companyID == "" || projectID == "" {
		return nil, errors.New("companyID and projectID cannot be empty for GetByID operation")
	}
	docSnap, err := r.projects(companyID).Doc(projectID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("project '%s' in company '%s': %w", projectID, companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project '%s': %w", projectID, err)
	}
	return decodeProject(docSnap)
}

func (r *firestoreProjectRepository) List(ctx context.Context, companyID string) ([]*models.Project, error) {
	iter := r.byCreation(companyID).Documents(ctx)
	defer iter.Stop()

	projects := []*models.Project{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate projects of company '%s': %w", companyID, err)
		}
		if project := r.decodeListed(companyID, doc); project != nil {
			projects = append(projects, project)
		}
	}
	return projects, nil
}

// Update writes only the fields set in the patch, plus updatedAt and updatedBy.
func (r *firestoreProjectRepository) Update(ctx context.Context, companyID, projectID string, patch models.ProjectPatch) error {
	_, err := r.projects(companyID).Doc(projectID).Update(ctx, projectUpdates(patch))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("project '%s' in company '%s': %w", projectID, companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to update project '%s': %w", projectID, err)
	}
	return nil
}

func projectUpdates(patch models.ProjectPatch) []firestore.Update {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
		{Path: "updatedBy", Value: patch.UpdatedBy},
	}
	set := func(path string, value interface{}) {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.ManagerUID != nil {
		set("managerUid", *patch.ManagerUID)
	}
	if patch.CoordinatorUID != nil {
		set("coordinatorUid", *patch.CoordinatorUID)
	}
	if patch.TeamID != nil {
		set("teamId", *patch.TeamID)
	}
	if patch.TechnicianUIDs != nil {
		set("technicianUids", *patch.TechnicianUIDs)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Billing != nil {
		set("billing", *patch.Billing)
	}
	// Empty dates are deleted to match the omitempty encoding used on create.
	if patch.StartDate != nil {
		set("startDate", dateValue(*patch.StartDate))
	}
	if patch.EndDate != nil {
		set("endDate", dateValue(*patch.EndDate))
	}
	return updates
}

func dateValue(d string) interface{} {
	if d == "" {
		return firestore.Delete
	}
	return d
}

// UpdateStatus is the single write issued by a kanban drop.
func (r *firestoreProjectRepository) UpdateStatus(ctx context.Context, companyID, projectID string, projectStatus models.ProjectStatus, updatedBy string) error {
	_, err := r.projects(companyID).Doc(projectID).Update(ctx, []firestore.Update{
		{Path: "status", Value: projectStatus},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
		{Path: "updatedBy", Value: updatedBy},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("project '%s' in company '%s': %w", projectID, companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to update status of project '%s': %w", projectID, err)
	}
	return nil
}

func (r *firestoreProjectRepository) Delete(ctx context.Context, companyID, projectID string) error {
	if _, err := r.projects(companyID).Doc(projectID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete project '%s': %w", projectID, err)
	}
	return nil
}

func (r *firestoreProjectRepository) Watch(ctx context.Context, companyID string, onSnapshot func([]*models.Project)) error {
	snapIter := r.byCreation(companyID).Snapshots(ctx)
	defer snapIter.Stop()

	for {
		snap, err := snapIter.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("projects listener for company '%s' failed: %w", companyID, err)
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("failed to read projects snapshot for company '%s': %w", companyID, err)
		}
		projects := make([]*models.Project, 0, len(docs))
		for _, doc := range docs {
			if project := r.decodeListed(companyID, doc); project != nil {
				projects = append(projects, project)
			}
		}
		onSnapshot(projects)
	}
}

func (r *firestoreProjectRepository) byCreation(companyID string) firestore.Query {
	return r.projects(companyID).OrderBy("createdAt", firestore.Desc)
}

// decodeListed decodes one document of a listing. Malformed documents are logged and yield nil.
func (r *firestoreProjectRepository) decodeListed(companyID string, doc *firestore.DocumentSnapshot) *models.Project {
	project, err := decodeProject(doc)
	if err != nil {
		r.logger.Warn("Skipping undecodable project",
			zap.String("companyId", companyID),
			zap.String("projectId", doc.Ref.ID),
			zap.Error(err))
		return nil
	}
	return project
}

func decodeProject(docSnap *firestore.DocumentSnapshot) (*models.Project, error) {
	var project models.Project
	if err := docSnap.DataTo(&project); err != nil {
		return nil, fmt.Errorf("failed to decode project '%s': %w", docSnap.Ref.ID, err)
	}
	project.ID = docSnap.Ref.ID
	if project.TechnicianUIDs == nil {
		project.TechnicianUIDs = []string{}
	}
	return &project, nil
}
