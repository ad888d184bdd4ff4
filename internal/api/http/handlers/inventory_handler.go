package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk-api/internal/api/dto"
	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/service"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

// InventoryHandler manages IT asset endpoints.
type InventoryHandler struct {
	service *service.InventoryService
}

// NewInventoryHandler constructs handler.
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: inventoryService}
}

// ListItems GET /inventory. An optional assigned_to query narrows the
// listing to one user's assets.
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	var (
		items []domain.InventoryItem
		err   error
	)
	if assignee := c.Query("assigned_to"); assignee != "" {
		items, err = h.service.ListByAssignee(c.Context(), assignee)
	} else {
		items, err = h.service.List(c.Context())
	}
	if err != nil {
		return err
	}
	resp := make([]dto.InventoryResponse, 0, len(items))
	for i := range items {
		resp = append(resp, inventoryResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetItem GET /inventory/:id.
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inventoryResponse(item)})
}

// CreateItem POST /inventory.
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.InventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item, err := h.service.Create(c.Context(), actor.ID, inventoryFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": inventoryResponse(item)})
}

// UpdateItem PUT /inventory/:id.
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.InventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	item := inventoryFromRequest(req)
	item.ID = c.Params("id")
	updated, err := h.service.Update(c.Context(), actor.ID, item)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inventoryResponse(updated)})
}

// DeleteItem DELETE /inventory/:id.
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.Context(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func inventoryFromRequest(req dto.InventoryRequest) *domain.InventoryItem {
	return &domain.InventoryItem{
		AssetTag:       req.AssetTag,
		Ownership:      req.Ownership,
		Area:           req.Area,
		Custodian:      req.Custodian,
		SerialNumber:   req.SerialNumber,
		Capacity:       req.Capacity,
		RAM:            req.RAM,
		Brand:          req.Brand,
		Status:         req.Status,
		Location:       req.Location,
		WarrantyExpiry: req.WarrantyExpiry,
		AssignedTo:     req.AssignedTo,
	}
}

func inventoryResponse(item *domain.InventoryItem) dto.InventoryResponse {
	return dto.InventoryResponse{
		ID:             item.ID,
		AssetTag:       item.AssetTag,
		Ownership:      item.Ownership,
		Area:           item.Area,
		Custodian:      item.Custodian,
		SerialNumber:   item.SerialNumber,
		Capacity:       item.Capacity,
		RAM:            item.RAM,
		Brand:          item.Brand,
		Status:         item.Status,
		Location:       item.Location,
		WarrantyExpiry: item.WarrantyExpiry,
		AssignedTo:     item.AssignedTo,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}
