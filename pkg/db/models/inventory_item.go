package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks available/reserved counts per listing.
type InventoryItem struct {
	ListingID    uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Sellable is the quantity a bundle may claim.
func (i *InventoryItem) Sellable() int {
	if i == nil {
		return 0
	}
	if n := i.AvailableQty - i.ReservedQty; n > 0 {
		return n
	}
	return 0
}
