package bundles

import (
	"strings"
	"testing"

	"github.com/craftmarket/bundles-backend/pkg/enums"
)

func eligibleBundle() *Bundle {
	b := NewBundle(testSeller)
	b.Title = "Breakfast set"
	set, _, _ := mugAndVases()
	b.Items = set
	b.Reprice()
	return &b
}

func codes(vs []Violation) []ViolationCode {
	out := make([]ViolationCode, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func TestValidateEligibleBundle(t *testing.T) {
	if vs := Validate(eligibleBundle()); len(vs) != 0 {
		t.Fatalf("expected no violations, got %v", vs)
	}
}

func TestValidateSingleItem(t *testing.T) {
	b := eligibleBundle()
	b.Items = b.Items[:1]
	b.Reprice()

	vs := Validate(b)
	if len(vs) != 1 || vs[0].Code != ViolationTooFewItems {
		t.Fatalf("expected only too_few_items, got %v", codes(vs))
	}
}

func TestValidateInventoryViolationNamesBothCounts(t *testing.T) {
	b := eligibleBundle()
	b.Items[0].Listing.AvailableQuantity = 3
	b.Items[0].Quantity = 5
	b.Reprice()

	vs := Validate(b)
	if len(vs) != 1 {
		t.Fatalf("expected exactly one violation, got %v", codes(vs))
	}
	v := vs[0]
	if v.Code != ViolationInsufficientInventory {
		t.Fatalf("unexpected code %s", v.Code)
	}
	if !strings.Contains(v.Message, "(5)") || !strings.Contains(v.Message, "(3)") {
		t.Fatalf("message should name both counts: %q", v.Message)
	}
	if !strings.Contains(v.Message, `"mug"`) {
		t.Fatalf("message should name the item: %q", v.Message)
	}
	if v.ItemID == nil || *v.ItemID != b.Items[0].ID {
		t.Fatalf("violation should reference the item")
	}
}

func TestValidateOrderIsStable(t *testing.T) {
	b := NewBundle(testSeller)
	b.Title = "   "
	b.Description = strings.Repeat("x", MaxDescriptionLength+1)
	l := activeListing("mug", "30", 0)
	b.Items.Add(l, 1)
	b.Items[0].Listing.Status = enums.ListingStatusInactive
	b.Discount = percentOff("100")
	b.Reprice()

	want := []ViolationCode{
		ViolationTitleRequired,
		ViolationTooFewItems,
		ViolationNonPositivePrice,
		ViolationInsufficientInventory,
		ViolationListingInactive,
		ViolationDescriptionTooLong,
	}
	got := codes(Validate(&b))
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestValidateTitleTooLong(t *testing.T) {
	b := eligibleBundle()
	b.Title = strings.Repeat("é", MaxTitleLength)
	if vs := Validate(b); len(vs) != 0 {
		t.Fatalf("100 runes is allowed, got %v", codes(vs))
	}
	b.Title += "é"
	if vs := Validate(b); len(vs) != 1 || vs[0].Code != ViolationTitleTooLong {
		t.Fatalf("expected title_too_long, got %v", codes(vs))
	}
}

func TestValidateIsPure(t *testing.T) {
	b := eligibleBundle()
	b.Items = b.Items[:1]
	first := Validate(b)
	second := Validate(b)
	if len(first) != len(second) || first[0] != second[0] {
		t.Fatalf("validate should be idempotent")
	}
	if len(b.Items) != 1 {
		t.Fatalf("validate must not mutate")
	}
}

func TestValidateRejectsPriceThatRoundsToZero(t *testing.T) {
	b := NewBundle(testSeller)
	b.Title = "Sticker pair"
	b.Items.Add(activeListing("sticker", "0.50", 5), 1)
	b.Items.Add(activeListing("patch", "0.50", 5), 1)
	b.Discount = percentOff("99.6")
	b.Reprice()

	if !b.Pricing.EffectivePrice.IsPositive() {
		t.Fatalf("exact effective price should be positive, got %s", b.Pricing.EffectivePrice)
	}
	vs := Validate(&b)
	if len(vs) != 1 || vs[0].Code != ViolationNonPositivePrice {
		t.Fatalf("expected only non_positive_price, got %v", codes(vs))
	}
}
