package models

import (
	"time"

	"github.com/google/uuid"
)

type BundleItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BundleID  uuid.UUID `gorm:"column:bundle_id;type:uuid;not null"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Position  int       `gorm:"column:position;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
