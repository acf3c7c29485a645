package bundles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
	pkgerrors "github.com/craftmarket/bundles-backend/pkg/errors"
	"github.com/craftmarket/bundles-backend/pkg/logger"
	"github.com/craftmarket/bundles-backend/pkg/metrics"
	"github.com/craftmarket/bundles-backend/pkg/pagination"
)

// Draft edit operations, used as metric labels.
const (
	opCreate      = "create"
	opOpen        = "open"
	opUpdate      = "update"
	opAddItem     = "add_item"
	opSetQuantity = "set_quantity"
	opRemoveItem  = "remove_item"
	opReorder     = "reorder"
	opSetDiscount = "set_discount"
)

type bundleDirectory interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Bundle, string, error)
	DeleteBundle(ctx context.Context, sellerID, bundleID uuid.UUID) error
}

// Service exposes seller-facing draft editing and bundle management.
type Service interface {
	CreateDraft(ctx context.Context, sellerID uuid.UUID, input DraftHeaderInput) (*DraftView, error)
	OpenBundle(ctx context.Context, sellerID, bundleID uuid.UUID) (*DraftView, error)
	GetDraft(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error)
	DiscardDraft(ctx context.Context, sellerID, draftID uuid.UUID) error
	UpdateDraft(ctx context.Context, sellerID, draftID uuid.UUID, input DraftHeaderInput) (*DraftView, error)
	AddItem(ctx context.Context, sellerID, draftID, listingID uuid.UUID, quantity int) (*DraftView, error)
	SetQuantity(ctx context.Context, sellerID, draftID, itemID uuid.UUID, quantity int) (*DraftView, error)
	RemoveItem(ctx context.Context, sellerID, draftID, itemID uuid.UUID) (*DraftView, error)
	ReorderItems(ctx context.Context, sellerID, draftID uuid.UUID, from, to int) (*DraftView, error)
	SetDiscount(ctx context.Context, sellerID, draftID uuid.UUID, discount Discount) (*DraftView, error)
	Save(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error)
	RetryItems(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error)
	ListBundles(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*BundlePage, error)
	DeleteBundle(ctx context.Context, sellerID, bundleID uuid.UUID) error
}

// DraftHeaderInput carries optional header edits; nil fields are left alone.
type DraftHeaderInput struct {
	Title       *string
	Description *string
	IsActive    *bool
}

type service struct {
	drafts    DraftStore
	gateway   Gateway
	catalog   Catalog
	directory bundleDirectory
	metrics   *metrics.BundleMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the draft store, persistence and catalog. Metrics and the
// logger are optional.
func NewService(drafts DraftStore, gateway Gateway, catalog Catalog, directory bundleDirectory, m *metrics.BundleMetrics, logg *logger.Logger) (Service, error) {
	if drafts == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("bundle gateway required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("listing catalog required")
	}
	if directory == nil {
		return nil, fmt.Errorf("bundle directory required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		drafts:    drafts,
		gateway:   gateway,
		catalog:   catalog,
		directory: directory,
		metrics:   m,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateDraft(ctx context.Context, sellerID uuid.UUID, input DraftHeaderInput) (*DraftView, error) {
	bundle := NewBundle(sellerID)
	applyHeader(&bundle, input)
	return s.startDraft(ctx, sellerID, bundle, opCreate)
}

// OpenBundle starts a draft from a persisted bundle. Bundles of other sellers
// are reported as not found.
func (s *service) OpenBundle(ctx context.Context, sellerID, bundleID uuid.UUID) (*DraftView, error) {
	bundle, err := s.gateway.LoadBundle(ctx, bundleID)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	if bundle.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
	}
	return s.startDraft(ctx, sellerID, *bundle, opOpen)
}

func (s *service) startDraft(ctx context.Context, sellerID uuid.UUID, bundle Bundle, op string) (*DraftView, error) {
	now := s.now()
	draft := &Draft{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Status:    draftStatus(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c := NewComposer(&bundle, draft.Status, s.gateway, s.catalog)
	draft.Bundle = *c.Bundle()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, s.mapError(ctx, err)
	}
	s.metrics.IncEdit(op)
	s.logg.Info(s.logg.WithDraftID(ctx, draft.ID.String()), "bundle.draft_started")
	return newDraftView(draft, c.Preview()), nil
}

func (s *service) GetDraft(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error) {
	draft, err := s.drafts.Load(ctx, sellerID, draftID)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	c := NewComposer(&draft.Bundle, draft.Status, s.gateway, s.catalog)
	return newDraftView(draft, c.Preview()), nil
}

func (s *service) DiscardDraft(ctx context.Context, sellerID, draftID uuid.UUID) error {
	err := s.drafts.WithLease(ctx, draftID, func(ctx context.Context) error {
		if _, err := s.drafts.Load(ctx, sellerID, draftID); err != nil {
			return err
		}
		return s.drafts.Delete(ctx, sellerID, draftID)
	})
	if err != nil {
		return s.mapError(ctx, err)
	}
	return nil
}

func (s *service) UpdateDraft(ctx context.Context, sellerID, draftID uuid.UUID, input DraftHeaderInput) (*DraftView, error) {
	return s.edit(ctx, sellerID, draftID, opUpdate, func(_ context.Context, c *Composer) error {
		if input.Title != nil {
			c.SetTitle(*input.Title)
		}
		if input.Description != nil {
			c.SetDescription(*input.Description)
		}
		if input.IsActive != nil {
			c.SetActive(*input.IsActive)
		}
		return nil
	})
}

// AddItem adds quantity of the seller's own listing, merging with an existing
// line for the same listing.
func (s *service) AddItem(ctx context.Context, sellerID, draftID, listingID uuid.UUID, quantity int) (*DraftView, error) {
	return s.edit(ctx, sellerID, draftID, opAddItem, func(ctx context.Context, c *Composer) error {
		listing, err := s.catalog.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		if listing.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
		}
		_, err = c.AddItem(*listing, quantity)
		return err
	})
}

func (s *service) SetQuantity(ctx context.Context, sellerID, draftID, itemID uuid.UUID, quantity int) (*DraftView, error) {
	return s.editItem(ctx, sellerID, draftID, itemID, opSetQuantity, func(c *Composer) error {
		return c.SetQuantity(itemID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sellerID, draftID, itemID uuid.UUID) (*DraftView, error) {
	return s.editItem(ctx, sellerID, draftID, itemID, opRemoveItem, func(c *Composer) error {
		return c.RemoveItem(itemID)
	})
}

// editItem turns an unknown item id into a notice on the unchanged draft.
func (s *service) editItem(ctx context.Context, sellerID, draftID, itemID uuid.UUID, op string, fn func(c *Composer) error) (*DraftView, error) {
	missing := false
	view, err := s.edit(ctx, sellerID, draftID, op, func(_ context.Context, c *Composer) error {
		err := fn(c)
		if errors.Is(err, ErrItemNotFound) {
			missing = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if missing {
		view.Notices = append(view.Notices, fmt.Sprintf("item %s is not in the bundle", itemID))
	}
	return view, nil
}

func (s *service) ReorderItems(ctx context.Context, sellerID, draftID uuid.UUID, from, to int) (*DraftView, error) {
	return s.edit(ctx, sellerID, draftID, opReorder, func(_ context.Context, c *Composer) error {
		return c.Reorder(from, to)
	})
}

func (s *service) SetDiscount(ctx context.Context, sellerID, draftID uuid.UUID, discount Discount) (*DraftView, error) {
	return s.edit(ctx, sellerID, draftID, opSetDiscount, func(_ context.Context, c *Composer) error {
		if !discount.Driver.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount driver")
		}
		if discount.Value.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
		}
		c.SetDiscount(discount)
		return nil
	})
}

func (s *service) edit(ctx context.Context, sellerID, draftID uuid.UUID, op string, fn func(context.Context, *Composer) error) (*DraftView, error) {
	view, err := s.withDraft(ctx, sellerID, draftID, fn)
	if err != nil {
		return nil, err
	}
	s.metrics.IncEdit(op)
	return view, nil
}

// withDraft holds the draft lease for the load, fn and store sequence. The
// draft is stored even when fn fails so failed saves keep their state.
func (s *service) withDraft(ctx context.Context, sellerID, draftID uuid.UUID, fn func(context.Context, *Composer) error) (*DraftView, error) {
	ctx = s.logg.WithDraftID(ctx, draftID.String())
	var view *DraftView
	err := s.drafts.WithLease(ctx, draftID, func(ctx context.Context) error {
		draft, err := s.drafts.Load(ctx, sellerID, draftID)
		if err != nil {
			return err
		}
		c := NewComposer(&draft.Bundle, draft.Status, s.gateway, s.catalog)
		fnErr := fn(ctx, c)

		draft.Status = c.Status()
		draft.UpdatedAt = s.now()
		if err := s.drafts.Save(context.WithoutCancel(ctx), draft); err != nil {
			if fnErr != nil {
				s.logg.Error(ctx, "bundle.draft_store_after_failure", fnErr)
			}
			return err
		}
		if fnErr != nil {
			return fnErr
		}
		view = newDraftView(draft, c.Preview())
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return view, nil
}

// Save validates the draft against fresh listings and persists it. Violations
// come back as a VALIDATION_ERROR carrying the list; an items failure comes
// back as PARTIAL_WRITE and the draft stays retryable.
func (s *service) Save(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error) {
	return s.persist(ctx, sellerID, draftID, (*Composer).Save)
}

func (s *service) RetryItems(ctx context.Context, sellerID, draftID uuid.UUID) (*DraftView, error) {
	return s.persist(ctx, sellerID, draftID, (*Composer).RetryItems)
}

func (s *service) persist(ctx context.Context, sellerID, draftID uuid.UUID, run func(*Composer, context.Context) (SaveResult, error)) (*DraftView, error) {
	start := time.Now()
	var (
		result SaveResult
		runErr error
		ran    bool
	)
	view, err := s.withDraft(ctx, sellerID, draftID, func(ctx context.Context, c *Composer) error {
		ran = true
		result, runErr = run(c, ctx)
		if runErr != nil {
			return runErr
		}
		if len(result.Violations) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "bundle is not eligible for saving").
				WithDetails(map[string]any{"draft_id": draftID, "violations": result.Violations})
		}
		return nil
	})
	if ran && !errors.Is(runErr, ErrRetryNotAllowed) {
		s.observeSave(ctx, draftID, start, result, runErr)
	}
	return view, err
}

func (s *service) observeSave(ctx context.Context, draftID uuid.UUID, start time.Time, result SaveResult, err error) {
	ctx = s.logg.WithDraftID(ctx, draftID.String())
	if result.BundleID != nil {
		ctx = s.logg.WithBundleID(ctx, result.BundleID.String())
	}
	took := time.Since(start)

	var perr *PersistenceError
	switch {
	case errors.As(err, &perr) && perr.Kind == ItemsWriteFailed:
		s.metrics.ObserveSave(metrics.SaveOutcomePartiallySaved, took)
		s.logg.Error(ctx, "bundle.save_partial", err)
	case errors.As(err, &perr):
		s.metrics.ObserveSave(metrics.SaveOutcomeHeaderFailed, took)
		s.logg.Error(ctx, "bundle.save_failed", err)
	case err != nil:
		s.metrics.ObserveSave(metrics.SaveOutcomeError, took)
		s.logg.Error(ctx, "bundle.save_failed", err)
	case len(result.Violations) > 0:
		s.metrics.ObserveSave(metrics.SaveOutcomeInvalid, took)
		for _, v := range result.Violations {
			s.metrics.IncViolation(string(v.Code))
		}
		s.logg.Info(s.logg.WithField(ctx, "violations", len(result.Violations)), "bundle.save_rejected")
	case result.State == enums.ComposerStateSaved:
		s.metrics.ObserveSave(metrics.SaveOutcomeSaved, took)
		s.logg.Info(ctx, "bundle.saved")
	}
}

func (s *service) ListBundles(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*BundlePage, error) {
	rows, next, err := s.directory.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	page := &BundlePage{Bundles: make([]BundleSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		page.Bundles = append(page.Bundles, summaryFromModel(row))
	}
	return page, nil
}

func (s *service) DeleteBundle(ctx context.Context, sellerID, bundleID uuid.UUID) error {
	if err := s.directory.DeleteBundle(ctx, sellerID, bundleID); err != nil {
		return s.mapError(ctx, err)
	}
	s.logg.Info(s.logg.WithBundleID(ctx, bundleID.String()), "bundle.deleted")
	return nil
}

func applyHeader(b *Bundle, input DraftHeaderInput) {
	if input.Title != nil {
		b.Title = *input.Title
	}
	if input.Description != nil {
		b.Description = *input.Description
	}
	if input.IsActive != nil {
		b.IsActive = *input.IsActive
	}
}

// mapError converts domain and store failures into typed API errors.
func (s *service) mapError(ctx context.Context, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}

	var perr *PersistenceError
	if errors.As(err, &perr) {
		return persistenceError(perr)
	}

	switch {
	case errors.Is(err, ErrDraftNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "draft not found")
	case errors.Is(err, ErrDraftBusy):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "draft is being edited by another request")
	case errors.Is(err, ErrBundleNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "bundle not found")
	case errors.Is(err, listings.ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "listing not found")
	case errors.Is(err, ErrItemNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
	case errors.Is(err, ErrListingInactive),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidIndex),
		errors.Is(err, pagination.ErrInvalidCursor):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	case errors.Is(err, ErrRetryNotAllowed):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, err.Error())
	}

	s.logg.Error(ctx, "bundle.dependency_failure", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bundle storage unavailable")
}

func persistenceError(perr *PersistenceError) error {
	details := map[string]any{"failure": perr.Kind}
	if perr.BundleID != nil {
		details["bundle_id"] = *perr.BundleID
	}

	switch {
	case errors.Is(perr, ErrVersionConflict):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, perr, "bundle was changed elsewhere; reopen it and try again").WithDetails(details)
	case errors.Is(perr, ErrBundleNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, perr, "bundle not found").WithDetails(details)
	case perr.Kind == ItemsWriteFailed:
		details["retry"] = "items"
		return pkgerrors.Wrap(pkgerrors.CodePartialWrite, perr, "bundle saved without items").WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, perr, "bundle could not be saved")
	}
}
