package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"flowproject-backend-go/internal/db"
	"flowproject-backend-go/internal/models"
)

// Audit actions.
const (
	AuditUserCreate       = "USER_CREATE"
	AuditUserUpdate       = "USER_UPDATE"
	AuditCompanyCreate    = "COMPANY_CREATE"
	AuditCompanySetActive = "COMPANY_SET_ACTIVE"
	AuditTeamDelete       = "TEAM_DELETE"
	AuditProjectDelete    = "PROJECT_DELETE"
)

type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) CreateAuditLog(ctx context.Context, companyID string, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return errors.New("AuditRepository not initialized in AuditService")
	}
	if err := s.auditRepo.Create(ctx, companyID, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}

// recordAudit writes an audit entry and only logs on failure; audit is never allowed to fail
// the operation it describes.
func recordAudit(ctx context.Context, audit AuditService, logger *zap.Logger, companyID string, entry models.AuditLog) {
	if audit == nil {
		return
	}
	if err := audit.CreateAuditLog(ctx, companyID, entry); err != nil {
		logger.Warn("Failed to create audit log",
			zap.String("action", entry.Action),
			zap.String("companyId", companyID),
			zap.String("targetId", entry.TargetID),
			zap.Error(err))
	}
}
