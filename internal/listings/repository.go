package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftmarket/bundles-backend/pkg/db/models"
)

var ErrNotFound = errors.New("listing not found")

// Repository reads listings and their inventory from the catalog tables.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetListing loads one listing with its current inventory.
func (r *Repository) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var row models.Listing
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	listing := FromModel(row)
	return &listing, nil
}

// GetListings loads the requested listings keyed by id. Ids without a row are
// absent from the result.
func (r *Repository) GetListings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Listing, error) {
	out := make(map[uuid.UUID]Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Listing
	if err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = FromModel(row)
	}
	return out, nil
}
