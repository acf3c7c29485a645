package bundles

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/craftmarket/bundles-backend/internal/listings"
	"github.com/craftmarket/bundles-backend/internal/testdb"
	"github.com/craftmarket/bundles-backend/pkg/db"
	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
	"github.com/craftmarket/bundles-backend/pkg/outbox"
	"github.com/craftmarket/bundles-backend/pkg/pagination"
)

type repoFixture struct {
	conn    *gorm.DB
	repo    *Repository
	catalog *listings.Repository
	mug     models.Listing
	vase    models.Listing
}

func newRepoFixture(t *testing.T) repoFixture {
	t.Helper()
	conn := testdb.Open(t)
	catalog := listings.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), nil)
	return repoFixture{
		conn:    conn,
		repo:    NewRepository(db.NewFromConn(conn), catalog, events),
		catalog: catalog,
		mug:     testdb.MustCreateListing(t, conn, testdb.ListingSeed{SellerID: testSeller, Title: "mug", UnitPrice: "30.00", Available: 10}),
		vase:    testdb.MustCreateListing(t, conn, testdb.ListingSeed{SellerID: testSeller, Title: "vase", UnitPrice: "50.00", Available: 10}),
	}
}

func (f repoFixture) draft(t *testing.T) *Composer {
	t.Helper()
	ctx := context.Background()
	mug, err := f.catalog.GetListing(ctx, f.mug.ID)
	require.NoError(t, err)
	vase, err := f.catalog.GetListing(ctx, f.vase.ID)
	require.NoError(t, err)

	b := NewBundle(testSeller)
	c := NewComposer(&b, Status{}, f.repo, f.catalog)
	c.SetTitle("Breakfast set")
	_, err = c.AddItem(*mug, 1)
	require.NoError(t, err)
	_, err = c.AddItem(*vase, 2)
	require.NoError(t, err)
	return c
}

func TestRepositorySaveAndLoadRoundTrip(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	c.SetDiscount(amountOff("40"))

	res, err := c.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, enums.ComposerStateSaved, res.State)

	loaded, err := f.repo.LoadBundle(context.Background(), *res.BundleID)
	require.NoError(t, err)

	assert.Equal(t, "Breakfast set", loaded.Title)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Equal(t, enums.DiscountDriverAmount, loaded.Discount.Driver)
	assert.True(t, loaded.Pricing.EffectivePrice.Equal(dec("90")), "effective %s", loaded.Pricing.EffectivePrice)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, c.Bundle().Items[0].ID, loaded.Items[0].ID, "draft item ids become row ids")
	assert.Equal(t, "vase", loaded.Items[1].Listing.Title)
	assert.Equal(t, 2, loaded.Items[1].Quantity)

	var header models.Bundle
	require.NoError(t, f.conn.First(&header, "id = ?", *res.BundleID).Error)
	assert.Equal(t, "30.7692", header.DiscountPercentage.StringFixed(PercentPlaces))
}

func TestRepositoryReplaceItemsDeletesPrevious(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	_, err := c.Save(context.Background())
	require.NoError(t, err)

	plate := testdb.MustCreateListing(t, f.conn, testdb.ListingSeed{SellerID: testSeller, Title: "plate", UnitPrice: "8", Available: 5})
	snapshot, err := f.catalog.GetListing(context.Background(), plate.ID)
	require.NoError(t, err)
	require.NoError(t, c.RemoveItem(c.Bundle().Items[0].ID))
	_, err = c.AddItem(*snapshot, 3)
	require.NoError(t, err)
	require.NoError(t, c.Reorder(1, 0))

	res, err := c.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, enums.ComposerStateSaved, res.State)

	var rows []models.BundleItem
	require.NoError(t, f.conn.Order("position ASC").Find(&rows, "bundle_id = ?", *res.BundleID).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, plate.ID, rows[0].ListingID)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, f.vase.ID, rows[1].ListingID)
	assert.Equal(t, int64(2), c.Bundle().Version)
}

func TestRepositoryStaleVersionConflicts(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	res, err := c.Save(context.Background())
	require.NoError(t, err)

	loaded, err := f.repo.LoadBundle(context.Background(), *res.BundleID)
	require.NoError(t, err)
	other := NewComposer(loaded, Status{}, f.repo, f.catalog)
	other.SetTitle("Someone else")
	_, err = other.Save(context.Background())
	require.NoError(t, err)

	c.SetTitle("Stale edit")
	_, err = c.Save(context.Background())
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, HeaderWriteFailed, perr.Kind)
	assert.ErrorIs(t, err, ErrVersionConflict)

	err = f.repo.ReplaceItems(context.Background(), HeaderRef{ID: *res.BundleID, Version: 1}, c.Bundle().Items)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestRepositoryUpdateUnknownBundle(t *testing.T) {
	f := newRepoFixture(t)
	id := uuid.New()
	_, err := f.repo.UpsertHeader(context.Background(), Header{ID: &id, Version: 1, SellerID: testSeller, Title: "x", Discount: NoDiscount()})
	assert.ErrorIs(t, err, ErrBundleNotFound)

	_, err = f.repo.LoadBundle(context.Background(), id)
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

func TestRepositoryLoadWithDeletedListing(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	c.SetDiscount(percentOff("20"))
	res, err := c.Save(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.conn.Exec("DELETE FROM inventory_items WHERE listing_id = ?", f.mug.ID).Error)
	require.NoError(t, f.conn.Exec("DELETE FROM listings WHERE id = ?", f.mug.ID).Error)

	loaded, err := f.repo.LoadBundle(context.Background(), *res.BundleID)
	require.NoError(t, err)
	assert.False(t, loaded.Items[0].Listing.IsActive())
	assert.True(t, loaded.Pricing.Gross.Equal(dec("100")))
	assert.True(t, loaded.Pricing.EffectivePrice.Equal(dec("80")))
}

func TestRepositoryEmitsOutboxEvents(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	res, err := c.Save(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.repo.DeleteBundle(context.Background(), testSeller, *res.BundleID))

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Order("created_at ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventBundleSaved, events[0].EventType)
	assert.Equal(t, enums.EventBundleDeleted, events[1].EventType)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var saved outbox.BundleSavedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &saved))
	assert.Equal(t, *res.BundleID, saved.BundleID)
	assert.Equal(t, "130.00", saved.EffectivePrice)
	assert.Len(t, saved.Items, 2)

	var itemCount int64
	require.NoError(t, f.conn.Model(&models.BundleItem{}).Where("bundle_id = ?", *res.BundleID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestRepositoryDeleteScopedToSeller(t *testing.T) {
	f := newRepoFixture(t)
	c := f.draft(t)
	res, err := c.Save(context.Background())
	require.NoError(t, err)

	err = f.repo.DeleteBundle(context.Background(), uuid.New(), *res.BundleID)
	require.ErrorIs(t, err, ErrBundleNotFound)

	var itemCount int64
	require.NoError(t, f.conn.Model(&models.BundleItem{}).Where("bundle_id = ?", *res.BundleID).Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount, "rolled back")
}

func TestRepositoryListBySellerPaginates(t *testing.T) {
	f := newRepoFixture(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		row := models.Bundle{
			ID:             uuid.New(),
			SellerID:       testSeller,
			Title:          "bundle",
			DiscountDriver: enums.DiscountDriverNone,
			EffectivePrice: dec("10"),
			IsActive:       true,
			Version:        1,
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, f.conn.Omit("Items").Create(&row).Error)
	}
	otherSeller := models.Bundle{ID: uuid.New(), SellerID: uuid.New(), Title: "x", DiscountDriver: enums.DiscountDriverNone, EffectivePrice: dec("1"), Version: 1, CreatedAt: base}
	require.NoError(t, f.conn.Omit("Items").Create(&otherSeller).Error)

	page, next, err := f.repo.ListBySeller(context.Background(), testSeller, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, next, err := f.repo.ListBySeller(context.Background(), testSeller, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
	assert.True(t, rest[0].CreatedAt.Equal(base))
}
