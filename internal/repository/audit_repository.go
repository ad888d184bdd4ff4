package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// AuditRepository stores the append-only audit trail. Records are never
// updated or deleted by the system itself.
type AuditRepository interface {
	Insert(ctx context.Context, record *domain.AuditRecord) error
	ListRecent(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error)
	ListByRecord(ctx context.Context, tableName, recordID string) ([]domain.AuditRecord, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, record *domain.AuditRecord) error {
	const query = `
        INSERT INTO audit_records (action, table_name, record_id, old_values, new_values, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.Action,
		record.TableName,
		record.RecordID,
		record.OldValues,
		record.NewValues,
		record.ActorID,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *auditRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, action, table_name, record_id, old_values, new_values, actor_id, created_at
        FROM audit_records ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRecords(rows)
}

func (r *auditRepository) ListByRecord(ctx context.Context, tableName, recordID string) ([]domain.AuditRecord, error) {
	const query = `
        SELECT id, action, table_name, record_id, old_values, new_values, actor_id, created_at
        FROM audit_records WHERE table_name=$1 AND record_id=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, tableName, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRecords(rows)
}

func scanAuditRecords(rows pgx.Rows) ([]domain.AuditRecord, error) {
	var result []domain.AuditRecord
	for rows.Next() {
		var record domain.AuditRecord
		if err := rows.Scan(
			&record.ID,
			&record.Action,
			&record.TableName,
			&record.RecordID,
			&record.OldValues,
			&record.NewValues,
			&record.ActorID,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
