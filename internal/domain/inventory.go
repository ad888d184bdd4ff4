package domain

import "time"

// InventoryItem models a tracked IT asset.
type InventoryItem struct {
	ID             string
	AssetTag       string
	Ownership      string
	Area           string
	Custodian      string
	SerialNumber   string
	Capacity       string
	RAM            string
	Brand          string
	Status         string
	Location       string
	WarrantyExpiry *time.Time
	AssignedTo     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
