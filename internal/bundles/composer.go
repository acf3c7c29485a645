package bundles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

var ErrRetryNotAllowed = errors.New("item retry is only possible after a partial save")

// Failure is the persisted description of the last failed gateway call.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Status is the composer's position in the save lifecycle. Origin and the
// detail fields are only set in the error state.
type Status struct {
	State      enums.ComposerState       `json:"state"`
	Origin     enums.ComposerErrorOrigin `json:"origin,omitempty"`
	Violations []Violation               `json:"violations,omitempty"`
	Failure    *Failure                  `json:"failure,omitempty"`
}

func draftStatus() Status {
	return Status{State: enums.ComposerStateDraft}
}

// PartiallySaved reports whether the header was written but items were not.
func (s Status) PartiallySaved() bool {
	return s.State == enums.ComposerStateError && s.Origin == enums.ComposerErrorFromSavedPartially
}

// SaveResult is returned by Save and RetryItems.
type SaveResult struct {
	State      enums.ComposerState
	BundleID   *uuid.UUID
	Violations []Violation
}

// Composer drives one bundle through edit, validate and save. It is not safe
// for concurrent use; callers serialize access per draft.
type Composer struct {
	bundle  *Bundle
	status  Status
	gateway Gateway
	catalog Catalog
}

// NewComposer resumes editing bundle from status. A zero status starts a draft.
func NewComposer(bundle *Bundle, status Status, gateway Gateway, catalog Catalog) *Composer {
	if status.State == "" || !status.State.IsRest() {
		status = draftStatus()
	}
	if bundle.Items == nil {
		bundle.Items = ItemSet{}
	}
	if bundle.Discount.Driver == "" {
		bundle.Discount = NoDiscount()
	}
	bundle.Reprice()
	return &Composer{bundle: bundle, status: status, gateway: gateway, catalog: catalog}
}

func (c *Composer) Bundle() *Bundle { return c.bundle }

func (c *Composer) Status() Status { return c.status }

// Preview validates the current draft without changing state.
func (c *Composer) Preview() []Violation {
	return Validate(c.bundle)
}

func (c *Composer) edited() {
	c.bundle.Reprice()
	c.status = draftStatus()
}

func (c *Composer) SetTitle(title string) {
	c.bundle.Title = title
	c.edited()
}

func (c *Composer) SetDescription(description string) {
	c.bundle.Description = description
	c.edited()
}

func (c *Composer) SetActive(active bool) {
	c.bundle.IsActive = active
	c.edited()
}

// SetDiscount makes d the driving discount field.
func (c *Composer) SetDiscount(d Discount) {
	c.bundle.Discount = NormalizeDiscount(d)
	c.edited()
}

func (c *Composer) AddItem(listing listings.Listing, quantity int) (Item, error) {
	item, err := c.bundle.Items.Add(listing, quantity)
	if err != nil {
		return Item{}, err
	}
	c.edited()
	return item, nil
}

// RemoveItem returns ErrItemNotFound without changing state for unknown ids.
func (c *Composer) RemoveItem(itemID uuid.UUID) error {
	if err := c.bundle.Items.Remove(itemID); err != nil {
		return err
	}
	c.edited()
	return nil
}

func (c *Composer) SetQuantity(itemID uuid.UUID, quantity int) error {
	if err := c.bundle.Items.SetQuantity(itemID, quantity); err != nil {
		return err
	}
	c.edited()
	return nil
}

func (c *Composer) Reorder(from, to int) error {
	if err := c.bundle.Items.Reorder(from, to); err != nil {
		return err
	}
	c.edited()
	return nil
}

// RefreshListings replaces every item snapshot with the catalog's current
// view. Listings that disappeared become inactive zero-stock snapshots.
func (c *Composer) RefreshListings(ctx context.Context) error {
	if len(c.bundle.Items) == 0 {
		return nil
	}
	current, err := c.catalog.GetListings(ctx, c.bundle.Items.ListingIDs())
	if err != nil {
		return fmt.Errorf("refresh listings: %w", err)
	}
	for i := range c.bundle.Items {
		id := c.bundle.Items[i].ListingID
		if l, ok := current[id]; ok {
			c.bundle.Items[i].Listing = l
		} else {
			c.bundle.Items[i].Listing = listings.Missing(id)
		}
	}
	c.bundle.Reprice()
	return nil
}

// Save validates against fresh listing data and, when eligible, writes the
// header then the items. Violations are reported in the result, not as an
// error. Gateway failures come back as *PersistenceError. Once writing starts
// caller cancellation is ignored so a save is not abandoned between the two
// calls.
func (c *Composer) Save(ctx context.Context) (SaveResult, error) {
	c.status = Status{State: enums.ComposerStateValidating}
	if err := c.RefreshListings(ctx); err != nil {
		c.status = draftStatus()
		return c.result(), err
	}

	if violations := Validate(c.bundle); len(violations) > 0 {
		c.status = Status{
			State:      enums.ComposerStateError,
			Origin:     enums.ComposerErrorFromDraft,
			Violations: violations,
		}
		return c.result(), nil
	}

	c.status = Status{State: enums.ComposerStateSaving}
	writeCtx := context.WithoutCancel(ctx)

	ref, err := c.gateway.UpsertHeader(writeCtx, HeaderOf(c.bundle))
	if err != nil {
		c.status = failedStatus(enums.ComposerErrorFromDraft, HeaderWriteFailed, err)
		return c.result(), &PersistenceError{Kind: HeaderWriteFailed, BundleID: c.bundle.ID, Err: err}
	}
	id := ref.ID
	c.bundle.ID = &id
	c.bundle.Version = ref.Version

	return c.writeItems(writeCtx, ref)
}

// RetryItems re-runs only the item replacement after a partial save.
func (c *Composer) RetryItems(ctx context.Context) (SaveResult, error) {
	if !c.status.PartiallySaved() || c.bundle.ID == nil {
		return c.result(), ErrRetryNotAllowed
	}
	c.status = Status{State: enums.ComposerStateSaving}
	ref := HeaderRef{ID: *c.bundle.ID, Version: c.bundle.Version}
	return c.writeItems(context.WithoutCancel(ctx), ref)
}

func (c *Composer) writeItems(ctx context.Context, ref HeaderRef) (SaveResult, error) {
	if err := c.gateway.ReplaceItems(ctx, ref, c.bundle.Items); err != nil {
		c.status = failedStatus(enums.ComposerErrorFromSavedPartially, ItemsWriteFailed, err)
		return c.result(), &PersistenceError{Kind: ItemsWriteFailed, BundleID: c.bundle.ID, Err: err}
	}
	c.status = Status{State: enums.ComposerStateSaved}
	return c.result(), nil
}

func (c *Composer) result() SaveResult {
	return SaveResult{
		State:      c.status.State,
		BundleID:   c.bundle.ID,
		Violations: c.status.Violations,
	}
}

func failedStatus(origin enums.ComposerErrorOrigin, kind FailureKind, err error) Status {
	return Status{
		State:   enums.ComposerStateError,
		Origin:  origin,
		Failure: &Failure{Kind: kind, Message: err.Error()},
	}
}
