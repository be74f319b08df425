package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"flowproject-backend-go/internal/models"
)

type firestoreCompanyUserRepository struct {
	client *firestore.Client
}

// NewFirestoreCompanyUserRepository creates a CompanyUserRepository backed by Firestore.
func NewFirestoreCompanyUserRepository(client *firestore.Client) CompanyUserRepository {
	return &firestoreCompanyUserRepository{client: client}
}

func (r *firestoreCompanyUserRepository) users(companyID string) *firestore.CollectionRef {
	return companyCollection(r.client, companyID, usersCollection)
}

func (r *firestoreCompanyUserRepository) GetByID(ctx context.Context, companyID, uid string) (*models.CompanyUser, error) {
	if companyID == "" || uid == "" {
		return nil, errors.New("companyID and uid cannot be empty for GetByID operation")
	}
	docSnap, err := r.users(companyID).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user '%s' in company '%s': %w", uid, companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user '%s' in company '%s': %w", uid, companyID, err)
	}
	return decodeCompanyUser(docSnap)
}

func (r *firestoreCompanyUserRepository) List(ctx context.Context, companyID string) ([]*models.CompanyUser, error) {
	iter := r.users(companyID).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	users := []*models.CompanyUser{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users of company '%s': %w", companyID, err)
		}
		user, err := decodeCompanyUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *firestoreCompanyUserRepository) CreateWithMembership(ctx context.Context, companyID string, user *models.CompanyUser) error {
	if companyID == "" || user.UID == "" {
		return errors.New("companyID and uid are required for CreateWithMembership")
	}
	mappingRef := membershipDoc(r.client, user.UID)
	profileRef := r.users(companyID).Doc(user.UID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(mappingRef, models.UserCompany{CompanyID: companyID}); err != nil {
			return err
		}
		return tx.Create(profileRef, user)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("user '%s': %w", user.UID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user '%s' in company '%s': %w", user.UID, companyID, err)
	}
	return nil
}

// Update writes the editable profile fields. The document must exist.
func (r *firestoreCompanyUserRepository) Update(ctx context.Context, companyID string, user *models.CompanyUser) error {
	_, err := r.users(companyID).Doc(user.UID).Update(ctx, []firestore.Update{
		{Path: "name", Value: user.Name},
		{Path: "phone", Value: user.Phone},
		{Path: "role", Value: user.Role},
		{Path: "active", Value: user.Active},
		{Path: "teamIds", Value: user.TeamIDs},
		{Path: "teamId", Value: user.TeamID},
		{Path: "managedTeamIds", Value: user.ManagedTeamIDs},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user '%s' in company '%s': %w", user.UID, companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user '%s' in company '%s': %w", user.UID, companyID, err)
	}
	return nil
}

func (r *firestoreCompanyUserRepository) SetManagedTeams(ctx context.Context, companyID, uid string, teamIDs []string) error {
	if teamIDs == nil {
		teamIDs = []string{}
	}
	_, err := r.users(companyID).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "managedTeamIds", Value: teamIDs},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user '%s' in company '%s': %w", uid, companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to set managed teams of user '%s': %w", uid, err)
	}
	return nil
}

// AnyInTeam also matches profiles that only carry the legacy teamId field.
func (r *firestoreCompanyUserRepository) AnyInTeam(ctx context.Context, companyID, teamID string) (bool, error) {
	queries := []firestore.Query{
		r.users(companyID).Where("teamIds", "array-contains", teamID).Limit(1),
		r.users(companyID).Where("teamId", "==", teamID).Limit(1),
	}
	for _, q := range queries {
		found, err := hasAny(ctx, q)
		if err != nil {
			return false, fmt.Errorf("failed to query members of team '%s': %w", teamID, err)
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func hasAny(ctx context.Context, q firestore.Query) (bool, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func decodeCompanyUser(docSnap *firestore.DocumentSnapshot) (*models.CompanyUser, error) {
	var user models.CompanyUser
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user '%s': %w", docSnap.Ref.ID, err)
	}
	user.UID = docSnap.Ref.ID
	user.Normalize()
	return &user, nil
}
