package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// ProfileInput is the onboarding and settings profile form.
type ProfileInput struct {
	Name        string
	PartnerName string
	WeddingDate string
}

func decodeProfile(snap docstore.Snapshot) (*models.UserProfile, []string) {
	p, err := models.DecodeProfile(snap)
	if err != nil {
		return nil, []string{err.Error()}
	}
	return p, nil
}

func decodeSettings(snap docstore.Snapshot) (models.NotificationSettings, []string) {
	s, err := models.DecodeNotificationSettings(snap)
	if err != nil {
		return s, []string{err.Error()}
	}
	return s, nil
}

func validateProfile(act actions, in ProfileInput) (models.UserProfile, error) {
	name, okName := required(in.Name)
	partner, okPartner := required(in.PartnerName)
	date, okDate := required(in.WeddingDate)
	switch {
	case !okName:
		return models.UserProfile{}, act.reject("name", "your name is required")
	case !okPartner:
		return models.UserProfile{}, act.reject("partnerName", "your partner's name is required")
	case !okDate:
		return models.UserProfile{}, act.reject("weddingDate", "the wedding date is required")
	case !validDate(date):
		return models.UserProfile{}, act.reject("weddingDate", "wedding date must be YYYY-MM-DD")
	}
	return models.UserProfile{Name: name, PartnerName: partner, WeddingDate: date}, nil
}

// Onboarding creates the profile for a new user.
type Onboarding struct {
	act  actions
	path string
}

// NewOnboarding creates the onboarding form handler for uid.
func NewOnboarding(store docstore.Store, uid string, opts Options) *Onboarding {
	return &Onboarding{act: newActions(store, uid, opts), path: docstore.UserPath(uid, "profile")}
}

// Submit writes the complete profile record.
func (o *Onboarding) Submit(ctx context.Context, in ProfileInput) error {
	p, err := validateProfile(o.act, in)
	if err != nil {
		return err
	}
	return o.act.run(ctx, "save your details", "Your wedding is all set up.", func(ctx context.Context) error {
		return o.act.store.Write(ctx, o.path, p.Fields())
	})
}

// Settings mirrors the profile and notification preferences.
type Settings struct {
	Profile *Mirror[*models.UserProfile]
	Prefs   *Mirror[models.NotificationSettings]
	act     actions
}

// NewSettings creates an unmounted settings view model for uid.
func NewSettings(store docstore.Store, uid string, opts Options) *Settings {
	act := newActions(store, uid, opts)
	return &Settings{
		Profile: NewMirror(store, docstore.UserPath(uid, "profile"), decodeProfile, act.logger),
		Prefs:   NewMirror(store, docstore.UserPath(uid, "notificationSettings"), decodeSettings, act.logger),
		act:     act,
	}
}

// Mount subscribes to both paths.
func (s *Settings) Mount(ctx context.Context) error {
	return errors.Join(s.Profile.Mount(ctx), s.Prefs.Mount(ctx))
}

// Unmount releases both subscriptions.
func (s *Settings) Unmount() {
	s.Profile.Unmount()
	s.Prefs.Unmount()
}

// WaitReady waits for both mirrors.
func (s *Settings) WaitReady(ctx context.Context) error {
	if err := s.Profile.WaitReady(ctx); err != nil {
		return err
	}
	return s.Prefs.WaitReady(ctx)
}

// SaveProfile merges edited profile fields.
func (s *Settings) SaveProfile(ctx context.Context, in ProfileInput) error {
	p, err := validateProfile(s.act, in)
	if err != nil {
		return err
	}
	return s.act.run(ctx, "save your details", "Your details have been updated.", func(ctx context.Context) error {
		return s.act.store.Merge(ctx, s.Profile.Path(), map[string]any{
			"name":        p.Name,
			"partnerName": p.PartnerName,
			"weddingDate": p.WeddingDate,
		})
	})
}

// SetHeroImage sets the dashboard header image URL.
func (s *Settings) SetHeroImage(ctx context.Context, url string) error {
	url, ok := required(url)
	if !ok {
		return s.act.reject("heroImage", "image URL is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "data:image/") {
		return s.act.reject("heroImage", fmt.Sprintf("%q is not an image URL", url))
	}
	return s.act.run(ctx, "save your image", "Your dashboard image has been updated.", func(ctx context.Context) error {
		return s.act.store.Merge(ctx, s.Profile.Path(), map[string]any{"heroImage": url})
	})
}

// SetDueDateReminders switches the daily due-date reminders on or off.
func (s *Settings) SetDueDateReminders(ctx context.Context, enabled bool) error {
	return s.act.run(ctx, "update notification settings", "", func(ctx context.Context) error {
		return s.act.store.Merge(ctx, s.Prefs.Path(), map[string]any{"dueDateReminder": enabled})
	})
}

// DeleteAllTasks removes the whole checklist.
func (s *Settings) DeleteAllTasks(ctx context.Context) error {
	return s.act.run(ctx, "delete tasks", "All tasks have been deleted.", func(ctx context.Context) error {
		return s.act.store.Delete(ctx, docstore.UserPath(s.act.uid, "tasks"))
	})
}

// Header mirrors what the dashboard header shows: the couple, the countdown and the
// unread badge.
type Header struct {
	Profile *Mirror[*models.UserProfile]
	Inbox   *Mirror[int]
	now     func() time.Time
}

// NewHeader creates an unmounted header view model for uid.
func NewHeader(store docstore.Store, uid string, opts Options) *Header {
	opts = opts.withDefaults()
	logger := opts.Logger.With("user_id", uid)
	return &Header{
		Profile: NewMirror(store, docstore.UserPath(uid, "profile"), decodeProfile, logger),
		Inbox: NewMirror(store, docstore.NotificationsPath(uid), func(snap docstore.Snapshot) (int, []string) {
			list, problems := collect(models.DecodeNotifications(snap))
			return countUnread(list), problems
		}, logger),
		now: opts.Now,
	}
}

// Mount subscribes to the profile and the inbox.
func (h *Header) Mount(ctx context.Context) error {
	return errors.Join(h.Profile.Mount(ctx), h.Inbox.Mount(ctx))
}

// Unmount releases both subscriptions.
func (h *Header) Unmount() {
	h.Profile.Unmount()
	h.Inbox.Unmount()
}

// WaitReady waits for both mirrors.
func (h *Header) WaitReady(ctx context.Context) error {
	if err := h.Profile.WaitReady(ctx); err != nil {
		return err
	}
	return h.Inbox.WaitReady(ctx)
}

// UnreadCount is the badge number.
func (h *Header) UnreadCount() int {
	return h.Inbox.Value()
}

// Couple returns "Name & Partner", or "" before onboarding.
func (h *Header) Couple() string {
	p := h.Profile.Value()
	if p == nil {
		return ""
	}
	return p.Name + " & " + p.PartnerName
}

// DaysUntilWedding counts calendar days from today. ok is false without a wedding date.
func (h *Header) DaysUntilWedding() (int, bool) {
	p := h.Profile.Value()
	if p == nil {
		return 0, false
	}
	return calculator.DaysUntil(calculator.DateOf(h.now()), p.WeddingDate)
}

// HeroImage returns the header image URL, if one is set.
func (h *Header) HeroImage() string {
	if p := h.Profile.Value(); p != nil {
		return p.HeroImage
	}
	return ""
}
