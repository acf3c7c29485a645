package bundles

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// DraftView is the API representation of a draft. Money is rendered with two
// decimals and percentages with four.
type DraftView struct {
	DraftID     uuid.UUID    `json:"draft_id"`
	BundleID    *uuid.UUID   `json:"bundle_id,omitempty"`
	Version     int64        `json:"version"`
	State       string       `json:"state"`
	ErrorOrigin string       `json:"error_origin,omitempty"`
	Failure     *Failure     `json:"failure,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	IsActive    bool         `json:"is_active"`
	Discount    DiscountView `json:"discount"`
	Pricing     PricingView  `json:"pricing"`
	Items       []ItemView   `json:"items"`
	Violations  []Violation  `json:"violations"`
	CanSave     bool         `json:"can_save"`
	Notices     []string     `json:"notices,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type DiscountView struct {
	Driver string `json:"driver"`
	Value  string `json:"value"`
}

type PricingView struct {
	Gross              string `json:"gross"`
	EffectivePrice     string `json:"effective_price"`
	DiscountAmount     string `json:"discount_amount"`
	DiscountPercentage string `json:"discount_percentage"`
}

type ItemView struct {
	ID                uuid.UUID `json:"id"`
	ListingID         uuid.UUID `json:"listing_id"`
	Title             string    `json:"title"`
	UnitPrice         string    `json:"unit_price"`
	Quantity          int       `json:"quantity"`
	Position          int       `json:"position"`
	LineTotal         string    `json:"line_total"`
	AvailableQuantity int       `json:"available_quantity"`
	ListingStatus     string    `json:"listing_status"`
	Images            []string  `json:"images"`
}

func newDraftView(d *Draft, violations []Violation) *DraftView {
	b := d.Bundle
	pricing := b.Pricing.Rounded()

	discountPlaces := MoneyPlaces
	if b.Discount.Driver == enums.DiscountDriverPercentage {
		discountPlaces = PercentPlaces
	}

	items := make([]ItemView, 0, len(b.Items))
	for _, item := range b.Items {
		images := item.Listing.Images
		if images == nil {
			images = []string{}
		}
		items = append(items, ItemView{
			ID:                item.ID,
			ListingID:         item.ListingID,
			Title:             item.Listing.Title,
			UnitPrice:         item.Listing.UnitPrice.StringFixed(MoneyPlaces),
			Quantity:          item.Quantity,
			Position:          item.Position,
			LineTotal:         item.LineTotal().StringFixed(MoneyPlaces),
			AvailableQuantity: item.Listing.AvailableQuantity,
			ListingStatus:     string(item.Listing.Status),
			Images:            images,
		})
	}
	if violations == nil {
		violations = []Violation{}
	}

	return &DraftView{
		DraftID:     d.ID,
		BundleID:    b.ID,
		Version:     b.Version,
		State:       string(d.Status.State),
		ErrorOrigin: string(d.Status.Origin),
		Failure:     d.Status.Failure,
		Title:       b.Title,
		Description: b.Description,
		IsActive:    b.IsActive,
		Discount: DiscountView{
			Driver: string(b.Discount.Driver),
			Value:  b.Discount.Value.StringFixed(discountPlaces),
		},
		Pricing: PricingView{
			Gross:              pricing.Gross.StringFixed(MoneyPlaces),
			EffectivePrice:     pricing.EffectivePrice.StringFixed(MoneyPlaces),
			DiscountAmount:     pricing.DiscountAmount.StringFixed(MoneyPlaces),
			DiscountPercentage: pricing.DiscountPercentage.StringFixed(PercentPlaces),
		},
		Items:      items,
		Violations: violations,
		CanSave:    len(violations) == 0,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// BundleSummary is one row of the seller's bundle list.
type BundleSummary struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	IsActive           bool      `json:"is_active"`
	DiscountDriver     string    `json:"discount_driver"`
	DiscountAmount     string    `json:"discount_amount"`
	DiscountPercentage string    `json:"discount_percentage"`
	EffectivePrice     string    `json:"effective_price"`
	ItemCount          int       `json:"item_count"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BundlePage is a cursor page of summaries. NextCursor is empty on the last page.
type BundlePage struct {
	Bundles    []BundleSummary `json:"bundles"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func summaryFromModel(m models.Bundle) BundleSummary {
	return BundleSummary{
		ID:                 m.ID,
		Title:              m.Title,
		IsActive:           m.IsActive,
		DiscountDriver:     string(m.DiscountDriver),
		DiscountAmount:     m.DiscountAmount.StringFixed(MoneyPlaces),
		DiscountPercentage: m.DiscountPercentage.StringFixed(PercentPlaces),
		EffectivePrice:     m.EffectivePrice.StringFixed(MoneyPlaces),
		ItemCount:          len(m.Items),
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
