package bundles

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

var testSeller = uuid.MustParse("7b0f1c3e-1111-4a5b-9c0d-000000000001")

func activeListing(title, price string, available int) listings.Listing {
	return listings.Listing{
		ID:                uuid.New(),
		SellerID:          testSeller,
		Title:             title,
		UnitPrice:         decimal.RequireFromString(price),
		AvailableQuantity: available,
		Images:            []string{"https://img.example.com/" + title + ".jpg"},
		Status:            enums.ListingStatusActive,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentOff(p string) Discount {
	return Discount{Driver: enums.DiscountDriverPercentage, Value: dec(p)}
}

func amountOff(a string) Discount {
	return Discount{Driver: enums.DiscountDriverAmount, Value: dec(a)}
}

// mugAndVases builds the 30x1 + 50x2 = 130 set used across tests.
func mugAndVases() (ItemSet, Item, Item) {
	var set ItemSet
	mug, _ := set.Add(activeListing("mug", "30", 10), 1)
	vase, _ := set.Add(activeListing("vase", "50", 10), 2)
	return set, mug, vase
}
