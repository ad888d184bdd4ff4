package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/domain"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

func newTestInventoryService() (*InventoryService, *fakeInventoryRepo, *recordingAuditRepo) {
	repo := newFakeInventoryRepo()
	auditRepo := &recordingAuditRepo{}
	return NewInventoryService(repo, audit.NewRecorder(auditRepo)), repo, auditRepo
}

func TestInventoryCreateRequiresAssetTag(t *testing.T) {
	svc, _, auditRepo := newTestInventoryService()

	_, err := svc.Create(context.Background(), "adm1", &domain.InventoryItem{AssetTag: "  "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	assert.Empty(t, auditRepo.records)
}

func TestInventoryUpdateAuditsBeforeAndAfter(t *testing.T) {
	svc, repo, auditRepo := newTestInventoryService()
	repo.items["i1"] = &domain.InventoryItem{ID: "i1", AssetTag: "LT-001", Location: "Piso 2"}

	_, err := svc.Update(context.Background(), "adm1", &domain.InventoryItem{
		ID: "i1", AssetTag: "LT-001", Location: "Piso 5",
	})
	require.NoError(t, err)

	require.Len(t, auditRepo.records, 1)
	record := auditRepo.records[0]
	assert.Equal(t, domain.AuditActionUpdate, record.Action)
	assert.Equal(t, "inventory_items", record.TableName)
	assert.Equal(t, "Piso 2", record.OldValues["Location"])
	assert.Equal(t, "Piso 5", record.NewValues["Location"])
}

func TestInventoryDeleteAuditsFinalSnapshot(t *testing.T) {
	svc, repo, auditRepo := newTestInventoryService()
	repo.items["i1"] = &domain.InventoryItem{ID: "i1", AssetTag: "LT-001"}

	require.NoError(t, svc.Delete(context.Background(), "adm1", "i1"))
	assert.Empty(t, repo.items)

	require.Len(t, auditRepo.records, 1)
	record := auditRepo.records[0]
	assert.Equal(t, domain.AuditActionDelete, record.Action)
	assert.Equal(t, "LT-001", record.OldValues["AssetTag"])
	assert.Nil(t, record.NewValues)
}

func TestInventoryGetNotFound(t *testing.T) {
	svc, _, _ := newTestInventoryService()
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
