// Package catalog holds the global vendor catalog and its fixed categories.
//
// The catalog is read-only for users. It can be served from the built-in list or
// from the vendors/ path of the store, which Seed fills from the built-in list.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Category is one browsable vendor category.
type Category struct {
	Name string
	Slug string
	Icon string
}

// Categories are shown in this order on the vendors page.
var Categories = []Category{
	{Name: "Catering", Slug: "catering", Icon: "restaurant"},
	{Name: "Music & DJ", Slug: "music-dj", Icon: "headset"},
	{Name: "Decoration", Slug: "decoration", Icon: "celebration"},
	{Name: "Photography", Slug: "photography", Icon: "photo_camera"},
	{Name: "Venues", Slug: "venues", Icon: "castle"},
	{Name: "Florist", Slug: "florist", Icon: "local_florist"},
}

// FeaturedIDs is the curated featured list, in display order.
var FeaturedIDs = []string{"vendor-1", "vendor-2", "vendor-3"}

// CategoryBySlug looks up a category.
func CategoryBySlug(slug string) (Category, bool) {
	for _, c := range Categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// Source lists the catalog.
type Source interface {
	Vendors(ctx context.Context) ([]models.Vendor, error)
}

// Static serves a fixed list.
type Static []models.Vendor

// Vendors returns a copy of the list.
func (s Static) Vendors(context.Context) ([]models.Vendor, error) {
	return append([]models.Vendor(nil), s...), nil
}

// StoreSource reads the catalog from vendors/ with a point read.
type StoreSource struct {
	store  docstore.Store
	logger *slog.Logger
}

// NewStoreSource creates a store-backed catalog.
func NewStoreSource(store docstore.Store, logger *slog.Logger) *StoreSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSource{store: store, logger: logger}
}

// Vendors reads and decodes the catalog. Malformed entries are logged and skipped.
func (s *StoreSource) Vendors(ctx context.Context) ([]models.Vendor, error) {
	snap, err := s.store.Read(ctx, docstore.VendorsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor catalog: %w", err)
	}
	vendors, invalid := models.Partition(models.DecodeVendors(snap))
	for _, r := range invalid {
		s.logger.Warn("skipping malformed vendor", "vendor_id", r.ID, "problem", r.Invalid)
	}
	return vendors, nil
}

// Seed writes vendors to vendors/ when that path is empty. It reports whether it wrote.
func Seed(ctx context.Context, store docstore.Store, vendors []models.Vendor) (bool, error) {
	existing, err := store.Read(ctx, docstore.VendorsPath())
	if err != nil {
		return false, fmt.Errorf("failed to read vendor catalog: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	updates := make(map[string]any, len(vendors))
	for _, v := range vendors {
		updates[docstore.VendorsPath(v.ID)] = v.Fields()
	}
	if len(updates) == 0 {
		return false, nil
	}
	if err := store.BatchedMerge(ctx, updates); err != nil {
		return false, fmt.Errorf("failed to seed vendor catalog: %w", err)
	}
	return true, nil
}
