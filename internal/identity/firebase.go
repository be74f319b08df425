package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"flowproject-backend-go/internal/core"
)

// AuthClient is the part of *auth.Client used here.
type AuthClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// FirebaseProvider implements core.IdentityProvider on top of the Firebase Admin SDK.
type FirebaseProvider struct {
	client AuthClient
}

// NewFirebaseProvider wraps an Auth client.
func NewFirebaseProvider(client AuthClient) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

var _ core.IdentityProvider = (*FirebaseProvider)(nil)

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName).
		EmailVerified(false).
		Disabled(false)

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", fmt.Errorf("%w (%s)", core.ErrEmailAlreadyExists, email)
		}
		return "", fmt.Errorf("failed to create auth user: %w", err)
	}
	return record.UID, nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete auth user '%s': %w", uid, err)
	}
	return nil
}

func (p *FirebaseProvider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := p.client.PasswordResetLink(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to generate password reset link: %w", err)
	}
	return link, nil
}
