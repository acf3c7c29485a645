package bundles

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

type ViolationCode string

const (
	ViolationTitleRequired         ViolationCode = "title_required"
	ViolationTitleTooLong          ViolationCode = "title_too_long"
	ViolationTooFewItems           ViolationCode = "too_few_items"
	ViolationNonPositivePrice      ViolationCode = "non_positive_price"
	ViolationInsufficientInventory ViolationCode = "insufficient_inventory"
	ViolationListingInactive       ViolationCode = "listing_inactive"
	ViolationDescriptionTooLong    ViolationCode = "description_too_long"
)

// Violation is one reason a bundle cannot be saved.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
	ItemID  *uuid.UUID    `json:"item_id,omitempty"`
}

// Validate lists every save-eligibility failure, in a stable order: title,
// item count, price, per-item inventory, per-item listing status, description.
// An empty result means the bundle may be saved. Pricing must be current.
func Validate(b *Bundle) []Violation {
	var out []Violation

	title := strings.TrimSpace(b.Title)
	switch {
	case title == "":
		out = append(out, Violation{Code: ViolationTitleRequired, Message: "title is required"})
	case utf8.RuneCountInString(title) > MaxTitleLength:
		out = append(out, Violation{
			Code:    ViolationTitleTooLong,
			Message: fmt.Sprintf("title must be at most %d characters", MaxTitleLength),
		})
	}

	if len(b.Items) < MinItems {
		out = append(out, Violation{
			Code:    ViolationTooFewItems,
			Message: fmt.Sprintf("a bundle needs at least %d items, has %d", MinItems, len(b.Items)),
		})
	}

	// checked at the scale the price is stored at
	if !b.Pricing.EffectivePrice.Round(MoneyPlaces).IsPositive() {
		out = append(out, Violation{
			Code:    ViolationNonPositivePrice,
			Message: fmt.Sprintf("effective price must be greater than zero, got %s", b.Pricing.EffectivePrice.StringFixed(MoneyPlaces)),
		})
	}

	for _, item := range b.Items {
		if item.Quantity > item.Listing.AvailableQuantity {
			out = append(out, Violation{
				Code: ViolationInsufficientInventory,
				Message: fmt.Sprintf("%s: requested quantity (%d) exceeds available inventory (%d)",
					itemLabel(item), item.Quantity, item.Listing.AvailableQuantity),
				ItemID: itemIDPtr(item),
			})
		}
	}

	for _, item := range b.Items {
		if !item.Listing.IsActive() {
			out = append(out, Violation{
				Code:    ViolationListingInactive,
				Message: fmt.Sprintf("%s is no longer available", itemLabel(item)),
				ItemID:  itemIDPtr(item),
			})
		}
	}

	if utf8.RuneCountInString(b.Description) > MaxDescriptionLength {
		out = append(out, Violation{
			Code:    ViolationDescriptionTooLong,
			Message: fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength),
		})
	}

	return out
}

func itemLabel(item Item) string {
	if item.Listing.Title != "" {
		return fmt.Sprintf("%q", item.Listing.Title)
	}
	return "listing " + item.ListingID.String()
}

func itemIDPtr(item Item) *uuid.UUID {
	id := item.ID
	return &id
}
