package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"flowproject-backend-go/internal/models"
)

type firestoreMembershipRepository struct {
	client *firestore.Client
}

// NewFirestoreMembershipRepository creates a MembershipRepository backed by userCompanies.
func NewFirestoreMembershipRepository(client *firestore.Client) MembershipRepository {
	return &firestoreMembershipRepository{client: client}
}

// GetCompanyID returns ErrNotFound when the user has no tenant mapping or the mapping is blank.
func (r *firestoreMembershipRepository) GetCompanyID(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", errors.New("uid cannot be empty for GetCompanyID operation")
	}
	docSnap, err := r.client.Collection(userCompaniesCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("membership for '%s': %w", uid, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get membership for '%s': %w", uid, err)
	}
	var mapping models.UserCompany
	if err := docSnap.DataTo(&mapping); err != nil {
		return "", fmt.Errorf("failed to decode membership for '%s': %w", uid, err)
	}
	if mapping.CompanyID == "" {
		return "", fmt.Errorf("membership for '%s' has no companyId: %w", uid, ErrNotFound)
	}
	return mapping.CompanyID, nil
}

func membershipDoc(client *firestore.Client, uid string) *firestore.DocumentRef {
	return client.Collection(userCompaniesCollection).Doc(uid)
}
