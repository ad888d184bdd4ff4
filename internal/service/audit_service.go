package service

import (
	"context"

	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/repository"
)

// AuditService exposes the read side of the audit trail. Records are
// append-only; there is no mutation surface here.
type AuditService struct {
	records repository.AuditRepository
}

// NewAuditService builds the service.
func NewAuditService(records repository.AuditRepository) *AuditService {
	return &AuditService{records: records}
}

// Recent returns the latest audit records across all tables.
func (s *AuditService) Recent(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	return s.records.ListRecent(ctx, limit, offset)
}

// ForRecord returns the full trail for one entity.
func (s *AuditService) ForRecord(ctx context.Context, tableName, recordID string) ([]domain.AuditRecord, error) {
	return s.records.ListByRecord(ctx, tableName, recordID)
}
