package bundles

import (
	"errors"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/internal/listings"
)

var (
	ErrItemNotFound    = errors.New("bundle item not found")
	ErrListingInactive = errors.New("listing is not active")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidIndex    = errors.New("item index out of range")
)

// ItemSet is the ordered list of bundle lines. Positions are always 0..n-1 in
// slice order and every listing appears at most once.
type ItemSet []Item

// Add appends the listing, or merges quantity into the existing line for the
// same listing and refreshes its snapshot.
func (s *ItemSet) Add(listing listings.Listing, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	if !listing.IsActive() {
		return Item{}, ErrListingInactive
	}
	items := *s
	for i := range items {
		if items[i].ListingID == listing.ID {
			items[i].Quantity += quantity
			items[i].Listing = listing
			return items[i], nil
		}
	}
	item := Item{
		ID:        uuid.New(),
		ListingID: listing.ID,
		Listing:   listing,
		Quantity:  quantity,
		Position:  len(items),
	}
	*s = append(items, item)
	return item, nil
}

// Remove drops the item and closes the gap in positions.
func (s *ItemSet) Remove(itemID uuid.UUID) error {
	idx := s.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	items := *s
	out := make(ItemSet, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	out.renumber()
	*s = out
	return nil
}

// SetQuantity replaces the quantity. Anything below 1 removes the item.
// Inventory is not checked here.
func (s *ItemSet) SetQuantity(itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return s.Remove(itemID)
	}
	idx := s.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	(*s)[idx].Quantity = quantity
	return nil
}

// Reorder moves the item at from to index to, shifting the items between.
func (s *ItemSet) Reorder(from, to int) error {
	items := *s
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrInvalidIndex
	}
	if from == to {
		return nil
	}
	moved := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = moved
	items.renumber()
	return nil
}

// Find returns the item with the given id.
func (s ItemSet) Find(itemID uuid.UUID) (Item, bool) {
	if idx := s.indexOf(itemID); idx >= 0 {
		return s[idx], true
	}
	return Item{}, false
}

// ListingIDs returns the listing of every line in order.
func (s ItemSet) ListingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s))
	for i, item := range s {
		ids[i] = item.ListingID
	}
	return ids
}

// Clone returns an independent copy.
func (s ItemSet) Clone() ItemSet {
	out := make(ItemSet, len(s))
	copy(out, s)
	return out
}

func (s ItemSet) indexOf(itemID uuid.UUID) int {
	for i := range s {
		if s[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s ItemSet) renumber() {
	for i := range s {
		s[i].Position = i
	}
}
