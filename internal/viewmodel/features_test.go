package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/catalog"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

func TestGuestsAddFilterAndSummary(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	guests := NewGuests(store, uid, Options{})
	mount(t, guests)

	inputs := []GuestInput{
		{Name: "Sam", Side: "bride", Group: "College"},
		{Name: "Sam Two", Side: "groom"},
		{Name: "Robin", Side: "both", Status: "declined"},
	}
	for _, in := range inputs {
		if _, err := guests.AddGuest(ctx, in); err != nil {
			t.Fatalf("AddGuest(%s) failed: %v", in.Name, err)
		}
	}
	eventually(t, "three guests", func() bool { return len(guests.Value()) == 3 })

	for _, g := range guests.Value() {
		if g.Name == "Sam" && g.Status != models.StatusPending {
			t.Errorf("new guest status = %q, want pending", g.Status)
		}
	}

	guests.SetFilter(calculator.GuestFilter{Side: "bride", Search: "sam"})
	visible := guests.Visible()
	if len(visible) != 1 || visible[0].Name != "Sam" {
		t.Errorf("Visible = %+v, want only Sam", visible)
	}
	want := calculator.GuestSummary{Total: 3, Pending: 2, Declined: 1}
	if got := guests.Summary(); got != want {
		t.Errorf("Summary with filter = %+v, want %+v", got, want)
	}

	if err := guests.SetStatus(ctx, visible[0].ID, "confirmed"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	eventually(t, "confirmation", func() bool { return guests.Summary().Confirmed == 1 })

	if err := guests.UpdateGuest(ctx, visible[0].ID, GuestInput{Name: "Sam", Side: "bride"}); err != nil {
		t.Fatalf("UpdateGuest failed: %v", err)
	}
	eventually(t, "group cleared", func() bool {
		for _, g := range guests.Value() {
			if g.ID == visible[0].ID {
				return g.Group == "" && g.Status == models.StatusConfirmed
			}
		}
		return false
	})

	if _, err := guests.AddGuest(ctx, GuestInput{Name: "X", Side: "left"}); !IsValidation(err) {
		t.Errorf("bad side error = %v, want validation", err)
	}
}

func TestTasksBucketsAndToggle(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	tasks := NewTasks(store, uid, Options{Now: fixedClock("2024-03-01")})
	mount(t, tasks)

	for _, in := range []TaskInput{
		{Title: "Book venue", DueDate: "2024-02-20"},
		{Title: "Send invites", DueDate: "2024-03-01"},
		{Title: "Pick cake", DueDate: "2024-04-01"},
	} {
		if _, err := tasks.AddTask(ctx, in); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}
	eventually(t, "three tasks", func() bool { return len(tasks.Value()) == 3 })

	b := tasks.Buckets()
	if len(b.Overdue) != 1 || len(b.Today) != 1 || len(b.Upcoming) != 1 || len(b.Completed) != 0 {
		t.Fatalf("buckets = %+v", b)
	}

	overdue := b.Overdue[0].ID
	if err := tasks.ToggleTask(ctx, overdue); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	eventually(t, "task completion", func() bool { return len(tasks.Buckets().Completed) == 1 })
	if got := tasks.Progress(); got < 33.3 || got > 33.4 {
		t.Errorf("Progress = %v, want about 33.3", got)
	}
	if preview := tasks.Preview(); len(preview) != 3 || preview[2].ID != overdue {
		t.Errorf("Preview = %+v, want completed task last", preview)
	}

	if _, err := tasks.AddTask(ctx, TaskInput{Title: "x", DueDate: "soon"}); !IsValidation(err) {
		t.Errorf("bad date error = %v, want validation", err)
	}
	if err := tasks.ToggleTask(ctx, "missing"); !IsValidation(err) {
		t.Errorf("unknown task error = %v, want validation", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	inbox := NewNotifications(store, uid, Options{})
	mount(t, inbox)

	t.Run("nothing unread writes nothing", func(t *testing.T) {
		n, err := inbox.MarkAllRead(ctx)
		if err != nil || n != 0 {
			t.Fatalf("MarkAllRead = %d, %v", n, err)
		}
		if len(store.Writes()) != 0 {
			t.Fatalf("MarkAllRead wrote %v", store.Writes())
		}
	})

	_ = store.Write(ctx, docstore.NotificationsPath(uid), map[string]any{
		"n1": map[string]any{"message": "a", "read": false, "createdAt": "2024-03-01T09:00:00Z", "type": "TASK_SHARED"},
		"n2": map[string]any{"message": "b", "read": true, "createdAt": "2024-03-01T10:00:00Z", "type": "DUE_DATE_REMINDER"},
		"n3": map[string]any{"message": "c", "read": false, "createdAt": "2024-03-01T11:00:00Z", "type": "DUE_DATE_REMINDER"},
	})
	eventually(t, "inbox", func() bool { return len(inbox.Value()) == 3 })

	t.Run("k unread become read in one batch", func(t *testing.T) {
		before := len(store.Writes())
		n, err := inbox.MarkAllRead(ctx)
		if err != nil || n != 2 {
			t.Fatalf("MarkAllRead = %d, %v; want 2", n, err)
		}
		writes := store.Writes()
		if len(writes) != before+1 || len(writes[before]) != 2 {
			t.Fatalf("writes = %v, want one batch of two fields", writes[before:])
		}
		eventually(t, "zero unread", func() bool { return inbox.UnreadCount() == 0 })
	})
}

func TestNotificationsTabsAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	_ = store.Write(ctx, docstore.NotificationsPath(uid), map[string]any{
		"n1": map[string]any{"message": "shared", "link": "/tasks", "read": false, "createdAt": "2024-03-01T09:00:00Z", "type": "TASK_SHARED"},
		"n2": map[string]any{"message": "due", "link": "/tasks", "read": false, "createdAt": "2024-03-02T09:00:00Z", "type": "DUE_DATE_REMINDER"},
	})
	inbox := NewNotifications(store, uid, Options{})
	mount(t, inbox)

	if all := inbox.List(InboxAll); len(all) != 2 || all[0].ID != "n2" {
		t.Errorf("all tab = %+v, want newest first", all)
	}
	if tasks := inbox.List(InboxTasks); len(tasks) != 1 || tasks[0].ID != "n1" {
		t.Errorf("tasks tab = %+v", tasks)
	}
	if reminders := inbox.List(InboxReminders); len(reminders) != 1 || reminders[0].ID != "n2" {
		t.Errorf("reminders tab = %+v", reminders)
	}

	link, err := inbox.Open(ctx, "n1")
	if err != nil || link != "/tasks" {
		t.Fatalf("Open = %q, %v", link, err)
	}
	eventually(t, "one unread", func() bool { return inbox.UnreadCount() == 1 })
}

func TestVendorsSaveAndRemove(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	vendors := NewVendors(store, uid, catalog.Builtin, Options{})
	mount(t, vendors)

	if got := vendors.Featured(); len(got) != 3 || got[0].ID != "vendor-1" {
		t.Errorf("Featured = %+v", got)
	}
	if _, _, ok := vendors.InCategory("bakery"); ok {
		t.Error("unknown slug found a category")
	}
	c, list, ok := vendors.InCategory("venues")
	if !ok || c.Name != "Venues" || len(list) == 0 {
		t.Errorf("InCategory(venues) = %+v, %d vendors", c, len(list))
	}

	for _, id := range []string{"vendor-3", "vendor-1"} {
		if err := vendors.Save(ctx, id); err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
	}
	eventually(t, "saved vendors", func() bool { return len(vendors.Saved()) == 2 })
	if chips := vendors.Chips(); len(chips) != 3 || chips[0] != calculator.AllCategories {
		t.Errorf("Chips = %v", chips)
	}
	vendors.SetCategory("Florist")
	if mine := vendors.MyVendors(); len(mine) != 1 || mine[0].ID != "vendor-3" {
		t.Errorf("MyVendors(Florist) = %+v", mine)
	}

	if err := vendors.Remove(ctx, "vendor-3"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	eventually(t, "vendor removal", func() bool { return !vendors.IsSaved("vendor-3") })
	if err := vendors.Save(ctx, "vendor-99"); !IsValidation(err) {
		t.Errorf("Save(unknown) = %v, want validation", err)
	}
}

func TestOnboardingAndSettings(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	onboarding := NewOnboarding(store, uid, Options{})
	if err := onboarding.Submit(ctx, ProfileInput{Name: "Alex", PartnerName: "Sam"}); !IsValidation(err) {
		t.Fatalf("Submit without date = %v, want validation", err)
	}
	if err := onboarding.Submit(ctx, ProfileInput{Name: "Alex", PartnerName: "Sam", WeddingDate: "2024-06-15"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	settings := NewSettings(store, uid, Options{})
	mount(t, settings)
	if p := settings.Profile.Value(); p == nil || p.Name != "Alex" {
		t.Fatalf("profile = %+v", p)
	}
	if !settings.Prefs.Value().DueDateReminder {
		t.Error("reminders should default on")
	}

	if err := settings.SetHeroImage(ctx, "https://example.com/hero.jpg"); err != nil {
		t.Fatalf("SetHeroImage failed: %v", err)
	}
	if err := settings.SetDueDateReminders(ctx, false); err != nil {
		t.Fatalf("SetDueDateReminders failed: %v", err)
	}
	eventually(t, "settings to update", func() bool {
		p := settings.Profile.Value()
		return p != nil && p.HeroImage != "" && !settings.Prefs.Value().DueDateReminder
	})
	if p := settings.Profile.Value(); p.WeddingDate != "2024-06-15" {
		t.Errorf("hero image merge lost fields: %+v", p)
	}

	_ = store.Write(ctx, docstore.UserPath(uid, "tasks", "t1"), map[string]any{"title": "x", "dueDate": "2024-03-01"})
	if err := settings.DeleteAllTasks(ctx); err != nil {
		t.Fatalf("DeleteAllTasks failed: %v", err)
	}
	if snap, _ := store.Read(ctx, docstore.UserPath(uid, "tasks")); snap != nil {
		t.Errorf("tasks remain: %#v", snap)
	}
}

func TestHeader(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	_ = store.Write(ctx, docstore.UserPath(uid, "profile"), models.UserProfile{Name: "Alex", PartnerName: "Sam", WeddingDate: "2024-06-15"}.Fields())
	_ = store.Write(ctx, docstore.NotificationsPath(uid, "n1"), map[string]any{"message": "a", "read": false, "createdAt": "2024-03-01T09:00:00Z"})

	header := NewHeader(store, uid, Options{Now: fixedClock("2024-03-01")})
	mount(t, header)

	if got := header.Couple(); got != "Alex & Sam" {
		t.Errorf("Couple = %q", got)
	}
	if days, ok := header.DaysUntilWedding(); !ok || days != 106 {
		t.Errorf("DaysUntilWedding = %d, %v; want 106", days, ok)
	}
	if header.UnreadCount() != 1 {
		t.Errorf("UnreadCount = %d, want 1", header.UnreadCount())
	}
}

func TestTaskValidationNamesField(t *testing.T) {
	tasks := NewTasks(newStore(), uid, Options{})
	tests := []struct {
		name  string
		in    TaskInput
		field string
	}{
		{name: "missing title", in: TaskInput{DueDate: "2024-03-01"}, field: "title"},
		{name: "missing due date", in: TaskInput{Title: "Book venue"}, field: "dueDate"},
		{name: "bad due date", in: TaskInput{Title: "Book venue", DueDate: "soon"}, field: "dueDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tasks.AddTask(context.Background(), tt.in)
			var v *ValidationError
			if !errors.As(err, &v) || v.Field != tt.field {
				t.Errorf("AddTask(%+v) error = %v, want validation on %s", tt.in, err, tt.field)
			}
		})
	}
}
