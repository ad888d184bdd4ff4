package domain

import "time"

// AuditAction captures the kind of mutation an audit record describes.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditRecord is an immutable trail entry for a single mutation. OldValues is
// nil for CREATE, NewValues is nil for DELETE; UPDATE carries both full entity
// snapshots. Records are append-only and never mutated or deleted.
type AuditRecord struct {
	ID        string
	Action    AuditAction
	TableName string
	RecordID  string
	OldValues map[string]any
	NewValues map[string]any
	ActorID   string
	CreatedAt time.Time
}
