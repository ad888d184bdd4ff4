package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk-api/internal/api/dto"
	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/service"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

// UsersHandler covers profile self-service and account administration.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// GetProfile GET /users/me.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	profile, err := h.service.GetProfile(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdateProfile PUT /users/me.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.UpdateProfile(c.Context(), actor.ID, req.Username, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// GetSettings GET /users/me/settings.
func (h *UsersHandler) GetSettings(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	settings, err := h.service.GetSettings(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// SaveSettings PUT /users/me/settings.
func (h *UsersHandler) SaveSettings(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settings, err := h.service.SaveSettings(c.Context(), &domain.UserSettings{
		UserID:        actor.ID,
		Notifications: req.Notifications,
		EmailAlerts:   req.EmailAlerts,
		DarkMode:      req.DarkMode,
		Language:      req.Language,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// ListUsers GET /admin/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /admin/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ChangeRole PATCH /admin/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.ChangeRole(c.Context(), actor.ID, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// SetActive PATCH /admin/users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.SetActive(c.Context(), actor.ID, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.DeleteUser(c.Context(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func profileResponse(profile *service.Profile) dto.ProfileResponse {
	assigned := make([]dto.InventoryResponse, 0, len(profile.Assigned))
	for i := range profile.Assigned {
		assigned = append(assigned, inventoryResponse(&profile.Assigned[i]))
	}
	return dto.ProfileResponse{
		User:     userResponse(profile.User),
		Assigned: assigned,
	}
}

func settingsResponse(settings *domain.UserSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		Notifications: settings.Notifications,
		EmailAlerts:   settings.EmailAlerts,
		DarkMode:      settings.DarkMode,
		Language:      settings.Language,
		UpdatedAt:     settings.UpdatedAt,
	}
}
