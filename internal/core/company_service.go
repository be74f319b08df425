package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

type companyService struct {
	companies db.CompanyRepository
	audit     AuditService
	logger    *zap.Logger
}

// NewCompanyService creates a CompanyService.
func NewCompanyService(cr db.CompanyRepository, audit AuditService, logger *zap.Logger) CompanyService {
	return &companyService{companies: cr, audit: audit, logger: logger}
}

func (s *companyService) ListCompanies(ctx context.Context, sess *Session) ([]*models.Company, error) {
	if err := requireSuperAdmin(sess, ActionCompanyList); err != nil {
		return nil, err
	}
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *companyService) GetCompany(ctx context.Context, sess *Session, companyID string) (*models.Company, error) {
	if err := requireSuperAdmin(sess, ActionCompanyList); err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: company '%s'", ErrNotFound, companyID)
		}
		return nil, fmt.Errorf("failed to get company '%s': %w", companyID, err)
	}
	return company, nil
}

// SetCompanyActive toggles a tenant. Sessions of an inactive company's users are not revoked.
func (s *companyService) SetCompanyActive(ctx context.Context, sess *Session, companyID string, active bool) error {
	if err := requireSuperAdmin(sess, ActionCompanySetActive); err != nil {
		return err
	}
	if _, err := s.GetCompany(ctx, sess, companyID); err != nil {
		return err
	}
	if err := s.companies.SetActive(ctx, companyID, active); err != nil {
		return fmt.Errorf("failed to update company '%s': %w", companyID, err)
	}
	recordAudit(ctx, s.audit, s.logger, companyID, models.AuditLog{
		ActorUID:   sess.UID,
		Action:     AuditCompanySetActive,
		TargetType: "COMPANY",
		TargetID:   companyID,
		Details:    map[string]interface{}{"active": active},
	})
	return nil
}

func requireSuperAdmin(sess *Session, action Action) error {
	if sess == nil {
		return fmt.Errorf("%w: no session", ErrUnauthenticated)
	}
	if !sess.IsSuperAdmin() {
		return ErrNotSuperAdmin
	}
	_, err := Authorize(sess.Role, action)
	return err
}
