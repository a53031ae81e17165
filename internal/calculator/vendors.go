package calculator

import (
	"strings"

	"github.com/knotcraft/Pre-production/internal/models"
)

// AllCategories is the chip that disables the my-vendors category filter.
const AllCategories = "All"

// PickVendors returns the catalog entries with the given ids, in ids order.
// Unknown ids are skipped.
func PickVendors(catalog []models.Vendor, ids []string) []models.Vendor {
	byID := make(map[string]models.Vendor, len(catalog))
	for _, v := range catalog {
		byID[v.ID] = v
	}
	var out []models.Vendor
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SavedVendors filters the catalog to the user's saved ids, keeping catalog order.
func SavedVendors(catalog []models.Vendor, saved map[string]bool) []models.Vendor {
	var out []models.Vendor
	for _, v := range catalog {
		if saved[v.ID] {
			out = append(out, v)
		}
	}
	return out
}

// VendorsInCategory filters by category display name. AllCategories and "" match everything.
func VendorsInCategory(vendors []models.Vendor, category string) []models.Vendor {
	if category == "" || category == AllCategories {
		return vendors
	}
	var out []models.Vendor
	for _, v := range vendors {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return out
}

// VendorsBySlug filters by category slug.
func VendorsBySlug(vendors []models.Vendor, slug string) []models.Vendor {
	var out []models.Vendor
	for _, v := range vendors {
		if v.CategorySlug == slug {
			out = append(out, v)
		}
	}
	return out
}

// CategoryChips lists AllCategories followed by each distinct category in first-seen order.
// There are no chips for an empty list.
func CategoryChips(vendors []models.Vendor) []string {
	if len(vendors) == 0 {
		return nil
	}
	chips := []string{AllCategories}
	seen := make(map[string]bool)
	for _, v := range vendors {
		if !seen[v.Category] {
			seen[v.Category] = true
			chips = append(chips, v.Category)
		}
	}
	return chips
}

// SearchVendors is a case-insensitive substring match over name and location.
func SearchVendors(vendors []models.Vendor, query string) []models.Vendor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return vendors
	}
	var out []models.Vendor
	for _, v := range vendors {
		if strings.Contains(strings.ToLower(v.Name), q) || strings.Contains(strings.ToLower(v.Location), q) {
			out = append(out, v)
		}
	}
	return out
}
