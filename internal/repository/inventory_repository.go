package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// InventoryRepository persists IT asset records.
type InventoryRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	ListByAssignee(ctx context.Context, userID string) ([]domain.InventoryItem, error)
}

type inventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository constructs repository.
func NewInventoryRepository(pool *pgxpool.Pool) InventoryRepository {
	return &inventoryRepository{pool: pool}
}

const inventoryColumns = `id, asset_tag, ownership, area, custodian, serial_number, capacity, ram,
       brand, status, location, warranty_expiry, assigned_to, created_at, updated_at`

func (r *inventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	const query = `
        INSERT INTO inventory_items (asset_tag, ownership, area, custodian, serial_number, capacity, ram, brand, status, location, warranty_expiry, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.AssetTag,
		item.Ownership,
		item.Area,
		item.Custodian,
		item.SerialNumber,
		item.Capacity,
		item.RAM,
		item.Brand,
		item.Status,
		item.Location,
		item.WarrantyExpiry,
		item.AssignedTo,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	const query = `
        UPDATE inventory_items SET asset_tag=$1, ownership=$2, area=$3, custodian=$4, serial_number=$5,
            capacity=$6, ram=$7, brand=$8, status=$9, location=$10, warranty_expiry=$11, assigned_to=$12, updated_at=NOW()
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		item.AssetTag,
		item.Ownership,
		item.Area,
		item.Custodian,
		item.SerialNumber,
		item.Capacity,
		item.RAM,
		item.Brand,
		item.Status,
		item.Location,
		item.WarrantyExpiry,
		item.AssignedTo,
		item.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	if err := r.pool.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id=$1`, id).Scan(
		&item.ID,
		&item.AssetTag,
		&item.Ownership,
		&item.Area,
		&item.Custodian,
		&item.SerialNumber,
		&item.Capacity,
		&item.RAM,
		&item.Brand,
		&item.Status,
		&item.Location,
		&item.WarrantyExpiry,
		&item.AssignedTo,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory_items ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInventory(rows)
}

func (r *inventoryRepository) ListByAssignee(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE assigned_to=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInventory(rows)
}

func scanInventory(rows pgx.Rows) ([]domain.InventoryItem, error) {
	var result []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(
			&item.ID,
			&item.AssetTag,
			&item.Ownership,
			&item.Area,
			&item.Custodian,
			&item.SerialNumber,
			&item.Capacity,
			&item.RAM,
			&item.Brand,
			&item.Status,
			&item.Location,
			&item.WarrantyExpiry,
			&item.AssignedTo,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
