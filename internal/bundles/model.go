package bundles

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

const (
	MinItems             = 2
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

// Item is one line of a bundle. Listing is the catalog snapshot taken when the
// item was added or last refreshed.
type Item struct {
	ID        uuid.UUID        `json:"id"`
	ListingID uuid.UUID        `json:"listing_id"`
	Listing   listings.Listing `json:"listing"`
	Quantity  int              `json:"quantity"`
	Position  int              `json:"position"`
}

// LineTotal is unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Listing.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Discount is the seller's input: which field drives and its value. Amount is
// money, percentage is in [0,100].
type Discount struct {
	Driver enums.DiscountDriver `json:"driver"`
	Value  decimal.Decimal      `json:"value"`
}

// NoDiscount leaves the effective price at the gross.
func NoDiscount() Discount {
	return Discount{Driver: enums.DiscountDriverNone, Value: decimal.Zero}
}

// Pricing is always derived from items and Discount, never edited directly.
type Pricing struct {
	Gross              decimal.Decimal `json:"gross"`
	EffectivePrice     decimal.Decimal `json:"effective_price"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// Bundle is the in-memory aggregate edited by a Composer. ID is nil until the
// first successful header write.
type Bundle struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Version     int64      `json:"version"`
	SellerID    uuid.UUID  `json:"seller_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	Items       ItemSet    `json:"items"`
	Discount    Discount   `json:"discount"`
	Pricing     Pricing    `json:"pricing"`
}

// NewBundle returns an empty, active bundle owned by sellerID.
func NewBundle(sellerID uuid.UUID) Bundle {
	b := Bundle{
		SellerID: sellerID,
		IsActive: true,
		Items:    ItemSet{},
		Discount: NoDiscount(),
	}
	b.Reprice()
	return b
}

// Reprice recomputes Pricing from the current items and discount.
func (b *Bundle) Reprice() {
	b.Pricing = Reconcile(b.Items, b.Discount)
}

// Persisted reports whether the header has been written at least once.
func (b *Bundle) Persisted() bool {
	return b.ID != nil
}
