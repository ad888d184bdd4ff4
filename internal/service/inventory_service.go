package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/repository"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

const inventoryTable = "inventory_items"

// InventoryService manages IT asset records. Every mutation writes an audit
// record with full before/after snapshots, same as tickets.
type InventoryService struct {
	items    repository.InventoryRepository
	recorder *audit.Recorder
}

// NewInventoryService builds the service.
func NewInventoryService(items repository.InventoryRepository, recorder *audit.Recorder) *InventoryService {
	return &InventoryService{items: items, recorder: recorder}
}

// List returns all assets, newest first.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.items.List(ctx)
}

// ListByAssignee returns the assets assigned to one user.
func (s *InventoryService) ListByAssignee(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	return s.items.ListByAssignee(ctx, userID)
}

// Get loads one asset.
func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("inventory item", nil)
		}
		return nil, err
	}
	return item, nil
}

// Create registers a new asset.
func (s *InventoryService) Create(ctx context.Context, actorID string, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if strings.TrimSpace(item.AssetTag) == "" {
		return nil, apperrors.NewValidationError("asset tag is required", nil)
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionCreate, inventoryTable, item.ID, nil, item, actorID); err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces an asset's mutable fields.
func (s *InventoryService) Update(ctx context.Context, actorID string, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	before, err := s.Get(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.AssetTag) == "" {
		return nil, apperrors.NewValidationError("asset tag is required", nil)
	}
	if err := s.items.Update(ctx, item); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("inventory item", nil)
		}
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionUpdate, inventoryTable, item.ID, before, item, actorID); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an asset. The audit record carries the final snapshot.
func (s *InventoryService) Delete(ctx context.Context, actorID, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionDelete, inventoryTable, item.ID, item, nil, actorID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("inventory item", nil)
		}
		return err
	}
	return nil
}
