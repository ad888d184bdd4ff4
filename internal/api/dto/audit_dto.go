package dto

import (
	"time"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// AuditRecordResponse is one trail entry with full snapshots.
type AuditRecordResponse struct {
	ID        string             `json:"id"`
	Action    domain.AuditAction `json:"action"`
	TableName string             `json:"table_name"`
	RecordID  string             `json:"record_id"`
	OldValues map[string]any     `json:"old_values,omitempty"`
	NewValues map[string]any     `json:"new_values,omitempty"`
	ActorID   string             `json:"actor_id"`
	CreatedAt time.Time          `json:"created_at"`
}
