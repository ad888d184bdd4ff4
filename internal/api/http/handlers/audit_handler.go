package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk-api/internal/api/dto"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/service"
)

// AuditHandler exposes the read-only audit trail to administrators.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{service: auditService}
}

// ListRecent GET /admin/audit?limit=50&offset=0.
func (h *AuditHandler) ListRecent(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	records, err := h.service.Recent(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(records)})
}

// ListForRecord GET /admin/audit/:table/:id.
func (h *AuditHandler) ListForRecord(c *fiber.Ctx) error {
	records, err := h.service.ForRecord(c.Context(), c.Params("table"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(records)})
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func auditResponses(records []domain.AuditRecord) []dto.AuditRecordResponse {
	resp := make([]dto.AuditRecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, dto.AuditRecordResponse{
			ID:        record.ID,
			Action:    record.Action,
			TableName: record.TableName,
			RecordID:  record.RecordID,
			OldValues: record.OldValues,
			NewValues: record.NewValues,
			ActorID:   record.ActorID,
			CreatedAt: record.CreatedAt,
		})
	}
	return resp
}
