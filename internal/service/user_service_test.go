package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/domain"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

type fakeSettingsRepo struct {
	settings map[string]*domain.UserSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: map[string]*domain.UserSettings{}}
}

func (f *fakeSettingsRepo) Get(_ context.Context, userID string) (*domain.UserSettings, error) {
	settings, ok := f.settings[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *settings
	return &cp, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, settings *domain.UserSettings) error {
	settings.UpdatedAt = time.Now()
	cp := *settings
	f.settings[settings.UserID] = &cp
	return nil
}

type fakeInventoryRepo struct {
	items map[string]*domain.InventoryItem
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: map[string]*domain.InventoryItem{}}
}

func (f *fakeInventoryRepo) Create(_ context.Context, item *domain.InventoryItem) error {
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeInventoryRepo) Update(_ context.Context, item *domain.InventoryItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeInventoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeInventoryRepo) GetByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (f *fakeInventoryRepo) List(_ context.Context) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeInventoryRepo) ListByAssignee(_ context.Context, userID string) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	for _, item := range f.items {
		if item.AssignedTo != nil && *item.AssignedTo == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo, *fakeInventoryRepo, *recordingAuditRepo) {
	t.Helper()
	users := newFakeUserRepo()
	inventory := newFakeInventoryRepo()
	auditRepo := &recordingAuditRepo{}
	svc := NewUserService(UserDependencies{
		UserRepo:      users,
		SettingsRepo:  newFakeSettingsRepo(),
		InventoryRepo: inventory,
		Recorder:      audit.NewRecorder(auditRepo),
	})
	return svc, users, inventory, auditRepo
}

func seedUser(t *testing.T, users *fakeUserRepo, username, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    email,
		Role:     role,
		Active:   true,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestGetProfileIncludesAssignedInventory(t *testing.T) {
	svc, users, inventory, _ := newTestUserService(t)
	user := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)

	assignee := user.ID
	inventory.items["i1"] = &domain.InventoryItem{ID: "i1", AssetTag: "LT-001", AssignedTo: &assignee}
	inventory.items["i2"] = &domain.InventoryItem{ID: "i2", AssetTag: "LT-002"}

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, profile.Assigned, 1)
	assert.Equal(t, "LT-001", profile.Assigned[0].AssetTag)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	svc, users, _, _ := newTestUserService(t)
	ana := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)
	seedUser(t, users, "bob", "bob@example.com", domain.RoleEmployee)

	_, err := svc.UpdateProfile(context.Background(), ana.ID, "ana", "Ana", "bob@example.com")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	updated, err := svc.UpdateProfile(context.Background(), ana.ID, "ana", "Ana María", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
}

func TestSettingsDefaultsWhenUnsaved(t *testing.T) {
	svc, users, _, _ := newTestUserService(t)
	user := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)

	settings, err := svc.GetSettings(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, settings.Notifications)
	assert.Equal(t, "es", settings.Language)

	settings.DarkMode = true
	saved, err := svc.SaveSettings(context.Background(), settings)
	require.NoError(t, err)
	assert.True(t, saved.DarkMode)

	loaded, err := svc.GetSettings(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.DarkMode)
}

func TestChangeRoleAudited(t *testing.T) {
	svc, users, _, auditRepo := newTestUserService(t)
	admin := seedUser(t, users, "root", "root@example.com", domain.RoleAdministrator)
	emp := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)

	updated, err := svc.ChangeRole(context.Background(), admin.ID, emp.ID, domain.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTechnician, updated.Role)

	require.Len(t, auditRepo.records, 1)
	record := auditRepo.records[0]
	assert.Equal(t, "users", record.TableName)
	assert.Equal(t, "EMPLOYEE", record.OldValues["Role"])
	assert.Equal(t, "TECHNICIAN", record.NewValues["Role"])
	assert.Equal(t, admin.ID, record.ActorID)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc, users, _, _ := newTestUserService(t)
	admin := seedUser(t, users, "root", "root@example.com", domain.RoleAdministrator)
	emp := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)

	_, err := svc.ChangeRole(context.Background(), admin.ID, emp.ID, domain.Role("SUPERUSER"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestDeleteUserBlockedByRelatedRecords(t *testing.T) {
	svc, users, _, _ := newTestUserService(t)
	admin := seedUser(t, users, "root", "root@example.com", domain.RoleAdministrator)
	emp := seedUser(t, users, "ana", "ana@example.com", domain.RoleEmployee)

	users.related = 3
	err := svc.DeleteUser(context.Background(), admin.ID, emp.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	_, err = users.GetByID(context.Background(), emp.ID)
	require.NoError(t, err, "blocked delete must leave the account in place")

	users.related = 0
	require.NoError(t, svc.DeleteUser(context.Background(), admin.ID, emp.ID))
	_, err = users.GetByID(context.Background(), emp.ID)
	assert.Equal(t, pgx.ErrNoRows, err)
}

func TestDeleteUserSelfDeletionBlocked(t *testing.T) {
	svc, users, _, _ := newTestUserService(t)
	admin := seedUser(t, users, "root", "root@example.com", domain.RoleAdministrator)

	err := svc.DeleteUser(context.Background(), admin.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}
