package calculator

import (
	"reflect"
	"testing"

	"github.com/knotcraft/Pre-production/internal/models"
)

var catalog = []models.Vendor{
	{ID: "vendor-1", Name: "Golden Spoon", Category: "Catering", CategorySlug: "catering", Location: "Austin"},
	{ID: "vendor-2", Name: "Beat Drop", Category: "Music & DJ", CategorySlug: "music-dj", Location: "Dallas"},
	{ID: "vendor-3", Name: "Petal & Stem", Category: "Florist", CategorySlug: "florist", Location: "Austin"},
	{ID: "vendor-4", Name: "Feast Co", Category: "Catering", CategorySlug: "catering", Location: "Houston"},
}

func vendorIDs(vendors []models.Vendor) []string {
	out := []string{}
	for _, v := range vendors {
		out = append(out, v.ID)
	}
	return out
}

func TestPickVendors(t *testing.T) {
	got := vendorIDs(PickVendors(catalog, []string{"vendor-3", "missing", "vendor-1"}))
	if !reflect.DeepEqual(got, []string{"vendor-3", "vendor-1"}) {
		t.Errorf("PickVendors = %v", got)
	}
}

func TestSavedVendors(t *testing.T) {
	saved := map[string]bool{"vendor-4": true, "vendor-1": true, "gone": true}
	mine := SavedVendors(catalog, saved)
	if got := vendorIDs(mine); !reflect.DeepEqual(got, []string{"vendor-1", "vendor-4"}) {
		t.Fatalf("SavedVendors = %v", got)
	}

	tests := []struct {
		category string
		want     []string
	}{
		{category: AllCategories, want: []string{"vendor-1", "vendor-4"}},
		{category: "Catering", want: []string{"vendor-1", "vendor-4"}},
		{category: "Florist", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := vendorIDs(VendorsInCategory(mine, tt.category)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VendorsInCategory(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestCategoryChips(t *testing.T) {
	got := CategoryChips(catalog)
	want := []string{"All", "Catering", "Music & DJ", "Florist"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CategoryChips = %v, want %v", got, want)
	}
	if got := CategoryChips(nil); got != nil {
		t.Errorf("CategoryChips(nil) = %v, want none", got)
	}
}

func TestVendorsBySlugAndSearch(t *testing.T) {
	if got := vendorIDs(VendorsBySlug(catalog, "catering")); !reflect.DeepEqual(got, []string{"vendor-1", "vendor-4"}) {
		t.Errorf("VendorsBySlug = %v", got)
	}
	if got := vendorIDs(SearchVendors(catalog, "austin")); !reflect.DeepEqual(got, []string{"vendor-1", "vendor-3"}) {
		t.Errorf("SearchVendors = %v", got)
	}
}
