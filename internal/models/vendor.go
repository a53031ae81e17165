package models

import "fmt"

// Vendor is one entry of the global catalog at vendors/{id}.
type Vendor struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CategorySlug string  `json:"categorySlug"`
	Location     string  `json:"location"`
	Rating       float64 `json:"rating"`
	Price        string  `json:"price"` // "$", "$$" or "$$$"
	Image        string  `json:"image,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Website      string  `json:"website,omitempty"`
}

// Fields encodes the catalog record.
func (v Vendor) Fields() map[string]any {
	f := map[string]any{
		"name":         v.Name,
		"category":     v.Category,
		"categorySlug": v.CategorySlug,
		"location":     v.Location,
		"rating":       v.Rating,
		"price":        v.Price,
	}
	for k, s := range map[string]string{"image": v.Image, "phone": v.Phone, "website": v.Website} {
		if s != "" {
			f[k] = s
		}
	}
	return f
}

// DecodeVendors decodes a store-backed catalog.
func DecodeVendors(snap any) []Result[Vendor] {
	return decodeCollection(snap, func(id string, r record) (Vendor, error) {
		name, errName := r.requiredString("name")
		category, errCategory := r.requiredString("category")
		slug, errSlug := r.requiredString("categorySlug")
		location, errLocation := r.optionalString("location")
		rating, errRating := r.optionalNumber("rating")
		price, errPrice := r.optionalString("price")
		image, errImage := r.optionalString("image")
		phone, errPhone := r.optionalString("phone")
		website, errWebsite := r.optionalString("website")
		if err := firstErr(errName, errCategory, errSlug, errLocation, errRating, errPrice, errImage, errPhone, errWebsite); err != nil {
			return Vendor{}, err
		}
		switch price {
		case "", "$", "$$", "$$$":
		default:
			return Vendor{}, fmt.Errorf("unknown price tier %q", price)
		}
		return Vendor{
			ID: id, Name: name, Category: category, CategorySlug: slug, Location: location,
			Rating: rating, Price: price, Image: image, Phone: phone, Website: website,
		}, nil
	})
}

// DecodeSavedVendors returns the ids in a users/{uid}/myVendors snapshot.
// Any non-empty child counts as a saved association.
func DecodeSavedVendors(snap any) map[string]bool {
	saved := make(map[string]bool)
	m, ok := snap.(map[string]any)
	if !ok {
		return saved
	}
	for id, v := range m {
		if v != nil {
			saved[id] = true
		}
	}
	return saved
}
