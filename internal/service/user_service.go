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

const usersTable = "users"

// UserService covers profile self-service, per-user settings and the
// administrator's account management surface.
type UserService struct {
	users     repository.UserRepository
	settings  repository.SettingsRepository
	inventory repository.InventoryRepository
	recorder  *audit.Recorder
}

// UserDependencies encapsulates collaborator requirements for user service.
type UserDependencies struct {
	UserRepo      repository.UserRepository
	SettingsRepo  repository.SettingsRepository
	InventoryRepo repository.InventoryRepository
	Recorder      *audit.Recorder
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:     deps.UserRepo,
		settings:  deps.SettingsRepo,
		inventory: deps.InventoryRepo,
		recorder:  deps.Recorder,
	}
}

// Profile is an account together with the assets assigned to it.
type Profile struct {
	User     *domain.User
	Assigned []domain.InventoryItem
}

// GetProfile loads the actor's own account and assigned inventory.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	assigned, err := s.inventory.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Assigned: assigned}, nil
}

// UpdateProfile changes the actor's own display name, username and email.
// Duplicate username or email yields a conflict.
func (s *UserService) UpdateProfile(ctx context.Context, userID, username, name, email string) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
		return nil, apperrors.NewValidationError("username and email are required", nil)
	}

	if email != user.Email {
		if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, apperrors.NewConflict("email already registered", nil)
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, err
		}
	}
	if username != user.Username {
		if other, err := s.users.GetByUsername(ctx, username); err == nil && other.ID != user.ID {
			return nil, apperrors.NewConflict("username already taken", nil)
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, err
		}
	}

	before := *user
	user.Username = username
	user.Name = name
	user.Email = email
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionUpdate, usersTable, user.ID, &before, user, userID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetSettings returns the actor's preferences, falling back to defaults when
// none have been saved yet.
func (s *UserService) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.DefaultSettings(userID), nil
		}
		return nil, err
	}
	return settings, nil
}

// SaveSettings stores the actor's preferences.
func (s *UserService) SaveSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error) {
	if settings.Language == "" {
		settings.Language = "es"
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ListUsers returns every account. Administrator only; enforced at the route.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUser loads one account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, id)
}

// ChangeRole sets an account's role.
func (s *UserService) ChangeRole(ctx context.Context, actorID, userID string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := *user
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionUpdate, usersTable, user.ID, &before, user, actorID); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive enables or disables an account. A disabled account cannot log in
// and its session tokens stop working at the next request.
func (s *UserService) SetActive(ctx context.Context, actorID, userID string, active bool) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := *user
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionUpdate, usersTable, user.ID, &before, user, actorID); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Accounts still referenced by tickets,
// comments, attachments, audit records or inventory cannot be deleted; disable
// them instead.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	related, err := s.users.CountRelatedRecords(ctx, userID)
	if err != nil {
		return err
	}
	if related > 0 {
		return apperrors.NewConflict("user has related records; deactivate the account instead", map[string]any{
			"related_records": related,
		})
	}

	if err := s.recorder.Record(ctx, domain.AuditActionDelete, usersTable, user.ID, user, nil, actorID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}
