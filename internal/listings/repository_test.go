package listings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftmarket/bundles-backend/internal/testdb"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

func TestRepositoryGetListing(t *testing.T) {
	conn := testdb.Open(t)
	seller := uuid.New()
	row := testdb.MustCreateListing(t, conn, testdb.ListingSeed{
		SellerID:  seller,
		Title:     "mug",
		UnitPrice: "30.00",
		Available: 7,
		Reserved:  2,
	})

	repo := NewRepository(conn)
	got, err := repo.GetListing(context.Background(), row.ID)
	require.NoError(t, err)

	assert.Equal(t, seller, got.SellerID)
	assert.Equal(t, "30", got.UnitPrice.String())
	assert.Equal(t, 5, got.AvailableQuantity)
	assert.Equal(t, enums.ListingStatusActive, got.Status)
	assert.Len(t, got.Images, 1)
	assert.True(t, got.IsActive())
}

func TestRepositoryGetListingNotFound(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	_, err := repo.GetListing(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryGetListingsSkipsMissing(t *testing.T) {
	conn := testdb.Open(t)
	mug := testdb.MustCreateListing(t, conn, testdb.ListingSeed{Title: "mug", UnitPrice: "30", Available: 3})
	vase := testdb.MustCreateListing(t, conn, testdb.ListingSeed{Title: "vase", UnitPrice: "50", Available: 1, Inactive: true})

	repo := NewRepository(conn)
	got, err := repo.GetListings(context.Background(), []uuid.UUID{mug.ID, vase.ID, uuid.New()})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[mug.ID].IsActive())
	assert.False(t, got[vase.ID].IsActive())

	empty, err := repo.GetListings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMissingSnapshotIsInactive(t *testing.T) {
	id := uuid.New()
	l := Missing(id)
	assert.Equal(t, id, l.ID)
	assert.False(t, l.IsActive())
	assert.Zero(t, l.AvailableQuantity)
}
