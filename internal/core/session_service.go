package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

// SessionKind tells which branch of the resolver matched.
type SessionKind string

const (
	SessionSuperAdmin SessionKind = "superadmin"
	SessionMember     SessionKind = "member"
)

// Session is the resolved identity of an authenticated caller.
type Session struct {
	Kind      SessionKind         `json:"kind"`
	UID       string              `json:"uid"`
	Role      models.Role         `json:"role"`
	CompanyID string              `json:"companyId,omitempty"`
	Profile   *models.CompanyUser `json:"profile,omitempty"`
}

// IsSuperAdmin reports whether the session carries platform-level access.
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Kind == SessionSuperAdmin
}

type sessionService struct {
	platformUsers db.PlatformUserRepository
	memberships   db.MembershipRepository
	users         db.CompanyUserRepository
	cache         MembershipCache
	logger        *zap.Logger
}

// NewSessionService creates a SessionService. cache may be nil.
func NewSessionService(
	pr db.PlatformUserRepository,
	mr db.MembershipRepository,
	ur db.CompanyUserRepository,
	cache MembershipCache,
	logger *zap.Logger,
) SessionService {
	if cache == nil {
		cache = noopMembershipCache{}
	}
	return &sessionService{
		platformUsers: pr,
		memberships:   mr,
		users:         ur,
		cache:         cache,
		logger:        logger,
	}
}

// Resolve returns a super-admin session, a member session, or an unauthenticated error whose
// reason is one of ErrNoTenantMapping, ErrProfileNotFound, ErrProfileInactive.
func (s *sessionService) Resolve(ctx context.Context, uid string) (*Session, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrUnauthenticated)
	}

	platformUser, err := s.platformUsers.GetByID(ctx, uid)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to read platform user '%s': %w", uid, err)
	}
	if platformUser.IsActiveSuperAdmin() {
		return &Session{Kind: SessionSuperAdmin, UID: uid, Role: models.RoleSuperAdmin}, nil
	}

	companyID, err := s.companyIDOf(ctx, uid)
	if err != nil {
		return nil, err
	}

	profile, err := s.users.GetByID(ctx, companyID, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Session rejected", zap.String("uid", uid), zap.String("companyId", companyID), zap.String("reason", "profile-not-found"))
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to read profile of '%s': %w", uid, err)
	}
	if !profile.Active {
		s.logger.Warn("Session rejected", zap.String("uid", uid), zap.String("companyId", companyID), zap.String("reason", "profile-inactive"))
		return nil, ErrProfileInactive
	}

	return &Session{
		Kind:      SessionMember,
		UID:       uid,
		Role:      profile.Role,
		CompanyID: companyID,
		Profile:   profile,
	}, nil
}

func (s *sessionService) companyIDOf(ctx context.Context, uid string) (string, error) {
	if companyID, ok := s.cache.GetCompanyID(ctx, uid); ok {
		return companyID, nil
	}
	companyID, err := s.memberships.GetCompanyID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Session rejected", zap.String("uid", uid), zap.String("reason", "no-tenant-mapping"))
			return "", ErrNoTenantMapping
		}
		return "", fmt.Errorf("failed to read tenant mapping of '%s': %w", uid, err)
	}
	if companyID == "" {
		return "", ErrNoTenantMapping
	}
	s.cache.SetCompanyID(ctx, uid, companyID)
	return companyID, nil
}

// requireMember rejects sessions that are not bound to a tenant.
func requireMember(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: no session", ErrUnauthenticated)
	}
	if s.Kind != SessionMember || s.CompanyID == "" {
		return fmt.Errorf("%w: operation requires a tenant member", ErrPermissionDenied)
	}
	return nil
}

type noopMembershipCache struct{}

func (noopMembershipCache) GetCompanyID(context.Context, string) (string, bool) { return "", false }
func (noopMembershipCache) SetCompanyID(context.Context, string, string)        {}
func (noopMembershipCache) Delete(context.Context, string)                      {}
