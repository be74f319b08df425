package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"flowproject-backend-go/internal/models"
)

type firestoreCompanyRepository struct {
	client *firestore.Client
}

// NewFirestoreCompanyRepository creates a CompanyRepository backed by Firestore.
func NewFirestoreCompanyRepository(client *firestore.Client) CompanyRepository {
	return &firestoreCompanyRepository{client: client}
}

func (r *firestoreCompanyRepository) GetByID(ctx context.Context, companyID string) (*models.Company, error) {
	if companyID == "" {
		return nil, errors.New("companyID cannot be empty for GetByID operation")
	}
	docSnap, err := companyDoc(r.client, companyID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("company '%s': %w", companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company '%s': %w", companyID, err)
	}
	var company models.Company
	if err := docSnap.DataTo(&company); err != nil {
		return nil, fmt.Errorf("failed to decode company '%s': %w", companyID, err)
	}
	company.ID = docSnap.Ref.ID
	return &company, nil
}

func (r *firestoreCompanyRepository) List(ctx context.Context) ([]*models.Company, error) {
	iter := r.client.Collection(companiesCollection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	companies := []*models.Company{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate companies: %w", err)
		}
		var company models.Company
		if err := doc.DataTo(&company); err != nil {
			return nil, fmt.Errorf("failed to decode company '%s': %w", doc.Ref.ID, err)
		}
		company.ID = doc.Ref.ID
		companies = append(companies, &company)
	}
	return companies, nil
}

func (r *firestoreCompanyRepository) SetActive(ctx context.Context, companyID string, active bool) error {
	_, err := companyDoc(r.client, companyID).Update(ctx, []firestore.Update{
		{Path: "active", Value: active},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("company '%s': %w", companyID, ErrNotFound)
		}
		return fmt.Errorf("failed to set active on company '%s': %w", companyID, err)
	}
	return nil
}

// CreateWithAdmin checks for the company and creates all three documents in one transaction,
// so a concurrent provisioning of the same id cannot overwrite it.
func (r *firestoreCompanyRepository) CreateWithAdmin(ctx context.Context, company *models.Company, admin *models.CompanyUser) error {
	if company.ID == "" || admin.UID == "" {
		return errors.New("company ID and admin UID are required for CreateWithAdmin")
	}
	companyRef := companyDoc(r.client, company.ID)
	mappingRef := membershipDoc(r.client, admin.UID)
	adminRef := companyRef.Collection(usersCollection).Doc(admin.UID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(companyRef); err == nil {
			return ErrAlreadyExists
		} else if !isNotFound(err) {
			return err
		}
		if err := tx.Create(companyRef, company); err != nil {
			return err
		}
		if err := tx.Create(mappingRef, models.UserCompany{CompanyID: company.ID}); err != nil {
			return err
		}
		return tx.Create(adminRef, admin)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("company '%s': %w", company.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create company '%s' with admin: %w", company.ID, err)
	}
	return nil
}
