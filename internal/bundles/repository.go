package bundles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
	"github.com/craftmarket/bundles-backend/pkg/outbox"
	"github.com/craftmarket/bundles-backend/pkg/pagination"
)

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository is the gorm-backed Gateway. Item replacement runs in one
// transaction together with its bundle_saved outbox event.
type Repository struct {
	db      txRunner
	catalog Catalog
	events  outbox.Emitter
}

func NewRepository(db txRunner, catalog Catalog, events outbox.Emitter) *Repository {
	return &Repository{db: db, catalog: catalog, events: events}
}

var _ Gateway = (*Repository)(nil)

func (r *Repository) UpsertHeader(ctx context.Context, h Header) (HeaderRef, error) {
	pricing := h.Pricing.Rounded()
	discount := NormalizeDiscount(h.Discount)

	if h.ID == nil {
		row := models.Bundle{
			ID:                 uuid.New(),
			SellerID:           h.SellerID,
			Title:              h.Title,
			Description:        h.Description,
			DiscountDriver:     discount.Driver,
			DiscountAmount:     pricing.DiscountAmount,
			DiscountPercentage: pricing.DiscountPercentage,
			EffectivePrice:     pricing.EffectivePrice,
			IsActive:           h.IsActive,
			Version:            1,
			CreatedAt:          time.Now().UTC(),
		}
		if err := r.db.DB().WithContext(ctx).Omit("Items").Create(&row).Error; err != nil {
			return HeaderRef{}, err
		}
		return HeaderRef{ID: row.ID, Version: row.Version}, nil
	}

	res := r.db.DB().WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ? AND seller_id = ? AND version = ?", *h.ID, h.SellerID, h.Version).
		Updates(map[string]any{
			"title":               h.Title,
			"description":         h.Description,
			"discount_driver":     discount.Driver,
			"discount_amount":     pricing.DiscountAmount,
			"discount_percentage": pricing.DiscountPercentage,
			"effective_price":     pricing.EffectivePrice,
			"is_active":           h.IsActive,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return HeaderRef{}, res.Error
	}
	if res.RowsAffected == 0 {
		return HeaderRef{}, r.missOrConflict(ctx, *h.ID, h.SellerID)
	}
	return HeaderRef{ID: *h.ID, Version: h.Version + 1}, nil
}

func (r *Repository) missOrConflict(ctx context.Context, id, sellerID uuid.UUID) error {
	var count int64
	if err := r.db.DB().WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrBundleNotFound
	}
	return ErrVersionConflict
}

func (r *Repository) ReplaceItems(ctx context.Context, ref HeaderRef, items ItemSet) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		var header models.Bundle
		err := tx.Omit("Items").First(&header, "id = ?", ref.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBundleNotFound
		}
		if err != nil {
			return err
		}
		if header.Version != ref.Version {
			return ErrVersionConflict
		}

		if err := tx.Where("bundle_id = ?", ref.ID).Delete(&models.BundleItem{}).Error; err != nil {
			return err
		}
		rows := make([]models.BundleItem, len(items))
		for i, item := range items {
			rows[i] = models.BundleItem{
				ID:        item.ID,
				BundleID:  ref.ID,
				ListingID: item.ListingID,
				Quantity:  item.Quantity,
				Position:  i,
			}
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if r.events == nil {
			return nil
		}
		return r.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBundleSaved,
			AggregateType: enums.AggregateBundle,
			AggregateID:   ref.ID,
			Actor:         &outbox.ActorRef{SellerID: header.SellerID},
			Data:          savedEvent(header, rows),
		})
	})
}

func savedEvent(header models.Bundle, rows []models.BundleItem) outbox.BundleSavedEvent {
	items := make([]outbox.BundleSavedItem, len(rows))
	for i, row := range rows {
		items[i] = outbox.BundleSavedItem{
			ItemID:    row.ID,
			ListingID: row.ListingID,
			Quantity:  row.Quantity,
			Position:  row.Position,
		}
	}
	return outbox.BundleSavedEvent{
		BundleID:           header.ID,
		SellerID:           header.SellerID,
		Version:            header.Version,
		Title:              header.Title,
		IsActive:           header.IsActive,
		DiscountDriver:     header.DiscountDriver.String(),
		DiscountAmount:     header.DiscountAmount.StringFixed(MoneyPlaces),
		DiscountPercentage: header.DiscountPercentage.StringFixed(PercentPlaces),
		EffectivePrice:     header.EffectivePrice.StringFixed(MoneyPlaces),
		Items:              items,
	}
}

func (r *Repository) LoadBundle(ctx context.Context, bundleID uuid.UUID) (*Bundle, error) {
	var row models.Bundle
	err := r.db.DB().WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&row, "id = ?", bundleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBundleNotFound
	}
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(row.Items))
	for i, item := range row.Items {
		ids[i] = item.ListingID
	}
	snapshots, err := r.catalog.GetListings(ctx, ids)
	if err != nil {
		return nil, err
	}
	return bundleFromModel(row, snapshots), nil
}

func bundleFromModel(row models.Bundle, snapshots map[uuid.UUID]listings.Listing) *Bundle {
	id := row.ID
	items := make(ItemSet, len(row.Items))
	for i, it := range row.Items {
		snapshot, ok := snapshots[it.ListingID]
		if !ok {
			snapshot = listings.Missing(it.ListingID)
		}
		items[i] = Item{
			ID:        it.ID,
			ListingID: it.ListingID,
			Listing:   snapshot,
			Quantity:  it.Quantity,
			Position:  i,
		}
	}
	b := &Bundle{
		ID:          &id,
		Version:     row.Version,
		SellerID:    row.SellerID,
		Title:       row.Title,
		Description: row.Description,
		IsActive:    row.IsActive,
		Items:       items,
		Discount:    discountFromModel(row),
	}
	b.Reprice()
	return b
}

func discountFromModel(row models.Bundle) Discount {
	switch row.DiscountDriver {
	case enums.DiscountDriverAmount:
		return Discount{Driver: enums.DiscountDriverAmount, Value: row.DiscountAmount}
	case enums.DiscountDriverPercentage:
		return Discount{Driver: enums.DiscountDriverPercentage, Value: row.DiscountPercentage}
	default:
		return NoDiscount()
	}
}

// ListBySeller pages through a seller's bundles, newest first. The returned
// cursor is empty on the last page.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Bundle, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.DB().WithContext(ctx).
		Preload("Items").
		Where("seller_id = ?", sellerID)
	if cursor != nil {
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Bundle
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, limit, func(b models.Bundle) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return rows, next, nil
}

// DeleteBundle removes the header and its items and queues bundle_deleted.
func (r *Repository) DeleteBundle(ctx context.Context, sellerID, bundleID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.BundleItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND seller_id = ?", bundleID, sellerID).Delete(&models.Bundle{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBundleNotFound
		}
		if r.events == nil {
			return nil
		}
		return r.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBundleDeleted,
			AggregateType: enums.AggregateBundle,
			AggregateID:   bundleID,
			Actor:         &outbox.ActorRef{SellerID: sellerID},
			Data:          outbox.BundleDeletedEvent{BundleID: bundleID, SellerID: sellerID},
		})
	})
}
