package dto

import "time"

// InventoryRequest payload for create and update.
type InventoryRequest struct {
	AssetTag       string     `json:"asset_tag"`
	Ownership      string     `json:"ownership"`
	Area           string     `json:"area"`
	Custodian      string     `json:"custodian"`
	SerialNumber   string     `json:"serial_number"`
	Capacity       string     `json:"capacity"`
	RAM            string     `json:"ram"`
	Brand          string     `json:"brand"`
	Status         string     `json:"status"`
	Location       string     `json:"location"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	AssignedTo     *string    `json:"assigned_to"`
}

// InventoryResponse mirrors a stored asset.
type InventoryResponse struct {
	ID             string     `json:"id"`
	AssetTag       string     `json:"asset_tag"`
	Ownership      string     `json:"ownership"`
	Area           string     `json:"area"`
	Custodian      string     `json:"custodian"`
	SerialNumber   string     `json:"serial_number"`
	Capacity       string     `json:"capacity"`
	RAM            string     `json:"ram"`
	Brand          string     `json:"brand"`
	Status         string     `json:"status"`
	Location       string     `json:"location"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	AssignedTo     *string    `json:"assigned_to"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
