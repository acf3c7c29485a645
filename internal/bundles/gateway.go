package bundles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/internal/listings"
)

var (
	ErrBundleNotFound  = errors.New("bundle not found")
	ErrVersionConflict = errors.New("bundle was modified by another editor")
)

// HeaderRef identifies a written header and the version that write produced.
type HeaderRef struct {
	ID      uuid.UUID
	Version int64
}

// Header is everything stored on the bundle row itself.
type Header struct {
	ID          *uuid.UUID
	Version     int64
	SellerID    uuid.UUID
	Title       string
	Description string
	IsActive    bool
	Discount    Discount
	Pricing     Pricing
}

// HeaderOf extracts the header fields of b.
func HeaderOf(b *Bundle) Header {
	return Header{
		ID:          b.ID,
		Version:     b.Version,
		SellerID:    b.SellerID,
		Title:       b.Title,
		Description: b.Description,
		IsActive:    b.IsActive,
		Discount:    b.Discount,
		Pricing:     b.Pricing,
	}
}

// Gateway persists bundles. UpsertHeader never touches items and ReplaceItems
// never touches header fields; callers must not assume the two calls share a
// transaction.
type Gateway interface {
	// UpsertHeader inserts when header.ID is nil, otherwise updates the row
	// whose version equals header.Version. A stale version yields
	// ErrVersionConflict.
	UpsertHeader(ctx context.Context, header Header) (HeaderRef, error)
	// ReplaceItems deletes every item of the bundle then writes items.
	ReplaceItems(ctx context.Context, ref HeaderRef, items ItemSet) error
	// LoadBundle reads the header, items and current listing snapshots.
	LoadBundle(ctx context.Context, bundleID uuid.UUID) (*Bundle, error)
}

// Catalog is the read-only listing source.
type Catalog interface {
	GetListing(ctx context.Context, id uuid.UUID) (*listings.Listing, error)
	GetListings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]listings.Listing, error)
}

// FailureKind says which persistence step failed.
type FailureKind string

const (
	HeaderWriteFailed FailureKind = "header_write_failed"
	ItemsWriteFailed  FailureKind = "items_write_failed"
)

// PersistenceError reports a failed gateway call during save. BundleID is the
// id known after the failure: the prior id for a header failure, the new one
// for an items failure.
type PersistenceError struct {
	Kind     FailureKind
	BundleID *uuid.UUID
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.BundleID != nil {
		return fmt.Sprintf("%s (bundle %s): %v", e.Kind, e.BundleID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
