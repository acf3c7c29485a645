package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// Bundle is the persisted bundle header. Items live in bundle_items and are
// replaced wholesale on every save.
type Bundle struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	SellerID           uuid.UUID            `gorm:"column:seller_id;type:uuid;not null"`
	Title              string               `gorm:"column:title;not null"`
	Description        string               `gorm:"column:description;not null;default:''"`
	DiscountDriver     enums.DiscountDriver `gorm:"column:discount_driver;type:discount_driver;not null;default:'none'"`
	DiscountAmount     decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	DiscountPercentage decimal.Decimal      `gorm:"column:discount_percentage;type:numeric(7,4);not null;default:0"`
	EffectivePrice     decimal.Decimal      `gorm:"column:effective_price;type:numeric(12,2);not null"`
	IsActive           bool                 `gorm:"column:is_active;not null;default:true"`
	Version            int64                `gorm:"column:version;not null;default:1"`
	Items              []BundleItem         `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
