package core

import (
	"context"
	"fmt"

	"vyap-onboarding-go/internal/db"
	"vyap-onboarding-go/internal/models"
)

// MaxAuditPage caps how many audit entries a single listing returns.
const MaxAuditPage = 100

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// CreateAuditLog creates a new audit log entry.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}

// ListForUser returns the newest audit entries for userID.
func (s *auditService) ListForUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error) {
	if s.auditRepo == nil {
		return nil, fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	if limit <= 0 || limit > MaxAuditPage {
		limit = MaxAuditPage
	}
	entries, err := s.auditRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs for user '%s': %w", userID, err)
	}
	return entries, nil
}
