package viewmodel

import (
	"context"
	"sync"
	"time"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/catalog"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Vendors mirrors the user's saved set at users/{uid}/myVendors and joins it with
// the catalog.
type Vendors struct {
	*Mirror[map[string]bool]
	act     actions
	catalog []models.Vendor

	mu       sync.Mutex
	category string
}

// NewVendors creates an unmounted vendors view model over a loaded catalog.
func NewVendors(store docstore.Store, uid string, vendors []models.Vendor, opts Options) *Vendors {
	act := newActions(store, uid, opts)
	return &Vendors{
		Mirror:   NewMirror(store, docstore.UserPath(uid, "myVendors"), decodeSaved, act.logger),
		act:      act,
		catalog:  vendors,
		category: calculator.AllCategories,
	}
}

func decodeSaved(snap docstore.Snapshot) (map[string]bool, []string) {
	return models.DecodeSavedVendors(snap), nil
}

// Catalog returns every vendor.
func (v *Vendors) Catalog() []models.Vendor {
	return v.catalog
}

// Featured returns the curated featured vendors.
func (v *Vendors) Featured() []models.Vendor {
	return calculator.PickVendors(v.catalog, catalog.FeaturedIDs)
}

// Search matches the catalog by name or location.
func (v *Vendors) Search(query string) []models.Vendor {
	return calculator.SearchVendors(v.catalog, query)
}

// InCategory lists the vendors in one category. ok is false for an unknown slug.
func (v *Vendors) InCategory(slug string) (catalog.Category, []models.Vendor, bool) {
	c, ok := catalog.CategoryBySlug(slug)
	if !ok {
		return catalog.Category{}, nil, false
	}
	return c, calculator.VendorsBySlug(v.catalog, slug), true
}

// IsSaved reports whether the user saved the vendor.
func (v *Vendors) IsSaved(id string) bool {
	return v.Value()[id]
}

// Saved returns the user's saved vendors in catalog order.
func (v *Vendors) Saved() []models.Vendor {
	return calculator.SavedVendors(v.catalog, v.Value())
}

// Chips returns the my-vendors category filter options.
func (v *Vendors) Chips() []string {
	return calculator.CategoryChips(v.Saved())
}

// SetCategory selects a my-vendors chip.
func (v *Vendors) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.category = category
}

// MyVendors returns the saved vendors under the selected chip.
func (v *Vendors) MyVendors() []models.Vendor {
	v.mu.Lock()
	category := v.category
	v.mu.Unlock()
	return calculator.VendorsInCategory(v.Saved(), category)
}

// Save bookmarks a catalog vendor.
func (v *Vendors) Save(ctx context.Context, id string) error {
	if len(calculator.PickVendors(v.catalog, []string{id})) == 0 {
		return v.act.reject("vendor", "no such vendor")
	}
	savedAt := v.act.now().UTC().Format(time.RFC3339)
	return v.act.run(ctx, "save the vendor", "Vendor saved to your list.", func(ctx context.Context) error {
		return v.act.store.Write(ctx, docstore.Join(v.Path(), id), map[string]any{"savedAt": savedAt})
	})
}

// Remove drops a vendor from the user's list.
func (v *Vendors) Remove(ctx context.Context, id string) error {
	err := v.act.run(ctx, "remove the vendor", "", func(ctx context.Context) error {
		return v.act.store.Delete(ctx, docstore.Join(v.Path(), id))
	})
	if err != nil {
		return err
	}
	v.act.toaster.Toast(Toast{Variant: VariantDefault, Title: "Vendor removed from your list."})
	return nil
}
