package bundles

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftmarket/bundles-backend/pkg/enums"
	"github.com/craftmarket/bundles-backend/pkg/redis"
)

func newDraftStore(t *testing.T) (*RedisDraftStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	store, err := NewRedisDraftStore(redis.NewFromClient(raw), DraftOptions{
		TTL:       time.Hour,
		LeaseTTL:  time.Second,
		LeaseWait: 0,
	})
	require.NoError(t, err)
	return store, mr
}

func TestRedisDraftStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newDraftStore(t)

	items, _, _ := mugAndVases()
	bundle := NewBundle(testSeller)
	bundle.Title = "Morning set"
	bundle.Items = items
	bundle.Discount = percentOff("20")
	bundle.Reprice()

	draft := &Draft{
		ID:        uuid.New(),
		SellerID:  testSeller,
		Bundle:    bundle,
		Status:    Status{State: enums.ComposerStateError, Origin: enums.ComposerErrorFromDraft, Violations: Validate(&bundle)},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, draft))

	key := "cb:draft:" + testSeller.String() + ":" + draft.ID.String()
	assert.Equal(t, time.Hour, mr.TTL(key))

	got, err := store.Load(ctx, testSeller, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning set", got.Bundle.Title)
	require.Len(t, got.Bundle.Items, 2)
	assert.Equal(t, items[0].ID, got.Bundle.Items[0].ID)
	assert.True(t, got.Bundle.Pricing.EffectivePrice.Equal(bundle.Pricing.EffectivePrice))
	assert.Equal(t, enums.DiscountDriverPercentage, got.Bundle.Discount.Driver)
	assert.Equal(t, draft.Status.Origin, got.Status.Origin)
}

func TestRedisDraftStoreScopedToSeller(t *testing.T) {
	ctx := context.Background()
	store, _ := newDraftStore(t)

	bundle := NewBundle(testSeller)
	draft := &Draft{ID: uuid.New(), SellerID: testSeller, Bundle: bundle, Status: draftStatus()}
	require.NoError(t, store.Save(ctx, draft))

	_, err := store.Load(ctx, uuid.New(), draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, store.Delete(ctx, testSeller, draft.ID))
	_, err = store.Load(ctx, testSeller, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newDraftStore(t)

	draft := &Draft{ID: uuid.New(), SellerID: testSeller, Bundle: NewBundle(testSeller), Status: draftStatus()}
	require.NoError(t, store.Save(ctx, draft))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, testSeller, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStoreLeaseBusy(t *testing.T) {
	ctx := context.Background()
	store, mr := newDraftStore(t)
	draftID := uuid.New()

	require.NoError(t, mr.Set("cb:lease:draft:"+draftID.String(), "other"))
	err := store.WithLease(ctx, draftID, func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrDraftBusy)
}
