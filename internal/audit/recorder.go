package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// Repository persists audit records. The concrete implementation lives in the
// repository package; the interface is kept here so the recorder can be tested
// without a database.
type Repository interface {
	Insert(ctx context.Context, record *domain.AuditRecord) error
}

// Recorder appends immutable audit records for entity mutations. Record must
// be called synchronously as part of the mutation it describes; a failed audit
// write is returned to the caller so the enclosing operation aborts instead of
// completing without its trail entry.
type Recorder struct {
	repo Repository
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record persists exactly one audit record. oldValue must be nil for CREATE,
// newValue nil for DELETE; UPDATE carries both full entity snapshots.
func (r *Recorder) Record(ctx context.Context, action domain.AuditAction, tableName, recordID string, oldValue, newValue any, actorID string) error {
	record := &domain.AuditRecord{
		Action:    action,
		TableName: tableName,
		RecordID:  recordID,
		ActorID:   actorID,
	}

	if oldValue != nil {
		snap, err := Snapshot(oldValue)
		if err != nil {
			return fmt.Errorf("snapshot old value: %w", err)
		}
		record.OldValues = snap
	}
	if newValue != nil {
		snap, err := Snapshot(newValue)
		if err != nil {
			return fmt.Errorf("snapshot new value: %w", err)
		}
		record.NewValues = snap
	}

	if err := r.repo.Insert(ctx, record); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Snapshot converts an entity into a generic map through a JSON round-trip so
// the full state can be stored in a JSONB column.
func Snapshot(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
