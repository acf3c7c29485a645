package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// Listing is a seller's sellable item. The catalog service owns these rows;
// the bundle service only reads them.
type Listing struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID  uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Title     string              `gorm:"column:title;not null"`
	UnitPrice decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Images    pq.StringArray      `gorm:"column:images;type:text[];not null;default:'{}'"`
	Status    enums.ListingStatus `gorm:"column:status;type:listing_status;not null"`
	Inventory *InventoryItem      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
