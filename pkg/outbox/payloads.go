package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies the seller whose action produced the event.
type ActorRef struct {
	SellerID uuid.UUID `json:"sellerId"`
}

// PayloadEnvelope is the versioned wrapper stored in outbox_events.payload and
// sent verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var errEmptyData = errors.New("envelope has no data")

// DecodeData unmarshals the event-specific body into v.
func (e PayloadEnvelope) DecodeData(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return errEmptyData
	}
	return json.Unmarshal(e.Data, v)
}

// BundleSavedItem is one line of a saved bundle.
type BundleSavedItem struct {
	ItemID    uuid.UUID `json:"itemId"`
	ListingID uuid.UUID `json:"listingId"`
	Quantity  int       `json:"quantity"`
	Position  int       `json:"position"`
}

// BundleSavedEvent is emitted when a bundle's items have been written.
// Money fields are decimal strings at cent scale.
type BundleSavedEvent struct {
	BundleID           uuid.UUID         `json:"bundleId"`
	SellerID           uuid.UUID         `json:"sellerId"`
	Version            int64             `json:"version"`
	Title              string            `json:"title"`
	IsActive           bool              `json:"isActive"`
	DiscountDriver     string            `json:"discountDriver"`
	DiscountAmount     string            `json:"discountAmount"`
	DiscountPercentage string            `json:"discountPercentage"`
	EffectivePrice     string            `json:"effectivePrice"`
	Items              []BundleSavedItem `json:"items"`
}

// BundleDeletedEvent is emitted when a bundle and its items are removed.
type BundleDeletedEvent struct {
	BundleID uuid.UUID `json:"bundleId"`
	SellerID uuid.UUID `json:"sellerId"`
}
