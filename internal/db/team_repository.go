package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"flowproject-backend-go/internal/models"
)

type firestoreTeamRepository struct {
	client *firestore.Client
}

// NewFirestoreTeamRepository creates a TeamRepository backed by Firestore.
func NewFirestoreTeamRepository(client *firestore.Client) TeamRepository {
	return &firestoreTeamRepository{client: client}
}

func (r *firestoreTeamRepository) teams(companyID string) *firestore.CollectionRef {
	return companyCollection(r.client, companyID, teamsCollection)
}

func (r *firestoreTeamRepository) CreateWithNextNumber(ctx context.Context, companyID string, team *models.Team) error {
	counterRef := counterDoc(r.client, companyID, teamsCounterDoc)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next, err := nextSequence(tx, counterRef)
		if err != nil {
			return err
		}
		team.Number = next
		team.ID = models.FormatSequenceID(next)
		if err := tx.Create(r.teams(companyID).Doc(team.ID), team); err != nil {
			return err
		}
		return writeSequence(tx, counterRef, next+1)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("team '%s' in company '%s': %w", team.ID, companyID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create team in company '%s': %w", companyID, err)
	}
	return nil
}

func (r *firestoreTeamRepository) GetByID(ctx context.Context, companyID, teamID string) (*models.Team, error) {
	if companyID == "" || teamID == "" {
		return nil, errors.New("companyID and teamID cannot be empty for GetByID operation")
	}
	docSnap, err := r.teams(companyID).Doc(teamID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("team '%s' in company '%s': %w", teamID, companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get team '%s': %w", teamID, err)
	}
	var team models.Team
	if err := docSnap.DataTo(&team); err != nil {
		return nil, fmt.Errorf("failed to decode team '%s': %w", teamID, err)
	}
	team.ID = docSnap.Ref.ID
	return &team, nil
}

func (r *firestoreTeamRepository) List(ctx context.Context, companyID string) ([]*models.Team, error) {
	iter := r.teams(companyID).Documents(ctx)
	defer iter.Stop()

	teams := []*models.Team{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate teams of company '%s': %w", companyID, err)
		}
		var team models.Team
		if err := doc.DataTo(&team); err != nil {
			return nil, fmt.Errorf("failed to decode team '%s': %w", doc.Ref.ID, err)
		}
		team.ID = doc.Ref.ID
		teams = append(teams, &team)
	}
	return teams, nil
}

func (r *firestoreTeamRepository) Update(ctx context.Context, companyID string, team *models.Team) error {
	_, err := r.teams(companyID).Doc(team.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: team.Name},
		{Path: "active", Value: team.Active},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("team '%s' in company '%s': %w", team.ID, companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to update team '%s': %w", team.ID, err)
	}
	return nil
}

func (r *firestoreTeamRepository) Delete(ctx context.Context, companyID, teamID string) error {
	if _, err := r.teams(companyID).Doc(teamID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete team '%s': %w", teamID, err)
	}
	return nil
}
