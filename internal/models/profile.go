package models

import (
	"errors"
	"fmt"
)

// UserProfile is created once during onboarding and edited from settings.
type UserProfile struct {
	Name        string
	PartnerName string
	WeddingDate string // YYYY-MM-DD
	HeroImage   string
}

// Fields encodes the complete profile record.
func (p UserProfile) Fields() map[string]any {
	f := map[string]any{
		"name":        p.Name,
		"partnerName": p.PartnerName,
		"weddingDate": p.WeddingDate,
	}
	if p.HeroImage != "" {
		f["heroImage"] = p.HeroImage
	}
	return f
}

// DecodeProfile decodes the profile snapshot. A nil snapshot yields a nil profile:
// the user has not been onboarded.
func DecodeProfile(snap any) (*UserProfile, error) {
	if snap == nil {
		return nil, nil
	}
	r, ok := asRecord(snap)
	if !ok {
		return nil, fmt.Errorf("profile is %T, not an object", snap)
	}
	name, errName := r.optionalString("name")
	partner, errPartner := r.optionalString("partnerName")
	date, errDate := r.optionalString("weddingDate")
	hero, errHero := r.optionalString("heroImage")
	if err := firstErr(errName, errPartner, errDate, errHero); err != nil {
		return nil, err
	}
	return &UserProfile{Name: name, PartnerName: partner, WeddingDate: date, HeroImage: hero}, nil
}

// NotificationSettings holds per-user notification preferences.
type NotificationSettings struct {
	// DueDateReminder is on unless the user explicitly switched it off.
	DueDateReminder bool
}

// DefaultNotificationSettings is what a user without a settings record gets.
var DefaultNotificationSettings = NotificationSettings{DueDateReminder: true}

// DecodeNotificationSettings decodes the settings snapshot, applying defaults for absent fields.
func DecodeNotificationSettings(snap any) (NotificationSettings, error) {
	settings := DefaultNotificationSettings
	if snap == nil {
		return settings, nil
	}
	r, ok := asRecord(snap)
	if !ok {
		return settings, errors.New("notification settings are not an object")
	}
	if _, present := r["dueDateReminder"]; present {
		v, err := r.optionalBool("dueDateReminder")
		if err != nil {
			return settings, err
		}
		settings.DueDateReminder = v
	}
	return settings, nil
}
