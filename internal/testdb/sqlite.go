// Package testdb opens in-memory sqlite databases carrying the bundle schema
// for repository tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/craftmarket/bundles-backend/pkg/db/models"
	"github.com/craftmarket/bundles-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE listings (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  images TEXT NOT NULL DEFAULT '{}',
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE inventory_items (
  listing_id TEXT PRIMARY KEY REFERENCES listings(id) ON DELETE CASCADE,
  available_qty INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	`CREATE TABLE bundles (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  discount_driver TEXT NOT NULL DEFAULT 'none',
  discount_amount TEXT NOT NULL DEFAULT '0',
  discount_percentage TEXT NOT NULL DEFAULT '0',
  effective_price TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE bundle_items (
  id TEXT PRIMARY KEY,
  bundle_id TEXT NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
  listing_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  position INTEGER NOT NULL,
  created_at DATETIME,
  UNIQUE (bundle_id, listing_id)
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a fresh database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// ListingSeed describes a listing row plus its inventory.
type ListingSeed struct {
	SellerID  uuid.UUID
	Title     string
	UnitPrice string
	Available int
	Reserved  int
	Inactive  bool
}

// MustCreateListing inserts a listing and its inventory row.
func MustCreateListing(t *testing.T, conn *gorm.DB, seed ListingSeed) models.Listing {
	t.Helper()

	status := enums.ListingStatusActive
	if seed.Inactive {
		status = enums.ListingStatusInactive
	}
	if seed.SellerID == uuid.Nil {
		seed.SellerID = uuid.New()
	}
	row := models.Listing{
		ID:        uuid.New(),
		SellerID:  seed.SellerID,
		Title:     seed.Title,
		UnitPrice: decimal.RequireFromString(seed.UnitPrice),
		Images:    pq.StringArray{"https://img.example.com/" + seed.Title + ".jpg"},
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := conn.Omit("Inventory").Create(&row).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}
	inv := models.InventoryItem{ListingID: row.ID, AvailableQty: seed.Available, ReservedQty: seed.Reserved}
	if err := conn.Create(&inv).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	row.Inventory = &inv
	return row
}
