package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/knotcraft/Pre-production/internal/catalog"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/docstore/memory"
	"github.com/knotcraft/Pre-production/internal/viewmodel"
)

type mountable interface {
	Mount(ctx context.Context) error
	Unmount()
	WaitReady(ctx context.Context) error
}

func mount(t *testing.T, m mountable) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Mount(ctx); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	t.Cleanup(m.Unmount)
	if err := m.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	writes := map[string]any{
		docstore.UserPath("u1", "profile"): map[string]any{"name": "Ana", "partnerName": "Ben", "weddingDate": "2024-06-20"},
		docstore.UserPath("u1", "budget"): map[string]any{
			"total": 20000,
			"categories": map[string]any{
				"c1": map[string]any{"name": "Venue", "allocated": 10000, "spent": 12750},
			},
		},
		docstore.UserPath("u1", "tasks"): map[string]any{
			"t1": map[string]any{"title": "Book venue", "dueDate": "2024-03-01", "completed": false},
			"t2": map[string]any{"title": "Order cake", "dueDate": "2024-03-10", "completed": true},
		},
		docstore.UserPath("u1", "guests", "g1"): map[string]any{"name": "Sam", "side": "bride", "status": "confirmed"},
		docstore.NotificationsPath("u1", "n1"): map[string]any{
			"message": "Reminder: 'Book venue' is due tomorrow.", "link": "/tasks", "read": false,
			"createdAt": "2024-02-29T09:00:00Z", "type": "DUE_DATE_REMINDER", "relatedId": "t1",
		},
		docstore.UserPath("u1", "myVendors", "vendor-2"): map[string]any{"savedAt": "2024-02-01T00:00:00Z"},
	}
	if err := store.BatchedMerge(ctx, writes); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestFormatterMoney(t *testing.T) {
	f := NewFormatter("en-US")
	if got := f.Money(12750); !strings.HasPrefix(got, "$") || !strings.Contains(got, "12,750.00") {
		t.Errorf("Money(12750) = %q", got)
	}
	if got := f.Money(-50); !strings.HasPrefix(got, "-") {
		t.Errorf("Money(-50) = %q, want leading minus", got)
	}
	if got := NewFormatter("not a tag").Count(1234567); got != "1,234,567" {
		t.Errorf("Count = %q", got)
	}
}

func TestRenderPages(t *testing.T) {
	store := seeded(t)
	opts := viewmodel.Options{Now: func() time.Time { return time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC) }}

	header := viewmodel.NewHeader(store, "u1", opts)
	budget := viewmodel.NewBudget(store, "u1", opts)
	tasks := viewmodel.NewTasks(store, "u1", opts)
	guests := viewmodel.NewGuests(store, "u1", opts)
	inbox := viewmodel.NewNotifications(store, "u1", opts)
	vendors := viewmodel.NewVendors(store, "u1", catalog.Builtin, opts)
	for _, m := range []mountable{header, budget, tasks, guests, inbox, vendors} {
		mount(t, m)
	}

	var buf bytes.Buffer
	r := NewRenderer(&buf, NewFormatter("en-US"))

	tests := []struct {
		name   string
		render func()
		want   []string
	}{
		{
			name:   "header",
			render: func() { r.Header(header) },
			want:   []string{"Ana & Ben", "110 days to go", "1 unread"},
		},
		{
			name:   "home",
			render: func() { r.Home(tasks, budget, guests) },
			want:   []string{"Book venue", "50%", "1 total, 1 confirmed"},
		},
		{
			name:   "budget",
			render: func() { r.Budget(budget) },
			want:   []string{"Venue", "12,750.00", " over", "Remaining"},
		},
		{
			name:   "tasks",
			render: func() { r.Tasks(tasks) },
			want:   []string{"Overdue", "Completed", "Order cake"},
		},
		{
			name:   "notifications",
			render: func() { r.Notifications(inbox, viewmodel.InboxReminders) },
			want:   []string{"* n1", "due tomorrow"},
		},
		{
			name:   "my vendors",
			render: func() { r.MyVendors(vendors) },
			want:   []string{"All", "vendor-2"},
		},
		{
			name:   "vendor search",
			render: func() { r.VendorSearch(vendors, "petal") },
			want:   []string{"Petal & Stem", "vendor-3"},
		},
		{
			name:   "unknown category",
			render: func() { r.VendorCategory(vendors, "bakeries") },
			want:   []string{`Category "bakeries" not found.`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.render()
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
