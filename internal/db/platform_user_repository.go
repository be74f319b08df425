package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"flowproject-backend-go/internal/models"
)

type firestorePlatformUserRepository struct {
	client *firestore.Client
}

// NewFirestorePlatformUserRepository creates a PlatformUserRepository backed by Firestore.
func NewFirestorePlatformUserRepository(client *firestore.Client) PlatformUserRepository {
	return &firestorePlatformUserRepository{client: client}
}

func (r *firestorePlatformUserRepository) GetByID(ctx context.Context, uid string) (*models.PlatformUser, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(platformUsersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("platform user '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get platform user '%s': %w", uid, err)
	}
	var user models.PlatformUser
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode platform user '%s': %w", uid, err)
	}
	user.UID = docSnap.Ref.ID
	return &user, nil
}

func (r *firestorePlatformUserRepository) Set(ctx context.Context, user *models.PlatformUser) error {
	if user.UID == "" {
		return errors.New("uid cannot be empty for Set operation")
	}
	if _, err := r.client.Collection(platformUsersCollection).Doc(user.UID).Set(ctx, user); err != nil {
		return fmt.Errorf("failed to set platform user '%s': %w", user.UID, err)
	}
	return nil
}
