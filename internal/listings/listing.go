package listings

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// Listing is the read-only catalog view of a sellable item.
type Listing struct {
	ID                uuid.UUID           `json:"id"`
	SellerID          uuid.UUID           `json:"seller_id"`
	Title             string              `json:"title"`
	UnitPrice         decimal.Decimal     `json:"unit_price"`
	AvailableQuantity int                 `json:"available_quantity"`
	Images            []string            `json:"images"`
	Status            enums.ListingStatus `json:"status"`
}

// IsActive reports whether the listing can be added to a bundle.
func (l Listing) IsActive() bool {
	return l.Status == enums.ListingStatusActive
}

// Missing builds the snapshot used when a referenced listing no longer exists.
func Missing(id uuid.UUID) Listing {
	return Listing{
		ID:        id,
		UnitPrice: decimal.Zero,
		Images:    []string{},
		Status:    enums.ListingStatusInactive,
	}
}

// FromModel converts the persisted row into the catalog view.
func FromModel(m models.Listing) Listing {
	images := make([]string, len(m.Images))
	copy(images, m.Images)
	return Listing{
		ID:                m.ID,
		SellerID:          m.SellerID,
		Title:             m.Title,
		UnitPrice:         m.UnitPrice,
		AvailableQuantity: m.Inventory.Sellable(),
		Images:            images,
		Status:            m.Status,
	}
}
