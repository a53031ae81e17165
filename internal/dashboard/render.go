package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/models"
	"github.com/knotcraft/Pre-production/internal/viewmodel"
)

// Renderer writes pages to w.
type Renderer struct {
	w   io.Writer
	f   Formatter
}

// NewRenderer creates a Renderer.
func NewRenderer(w io.Writer, f Formatter) *Renderer {
	return &Renderer{w: w, f: f}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) table(write func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	write(tw)
	tw.Flush()
}

// Header renders the shell header: couple, countdown, and unread badge.
func (r *Renderer) Header(h *viewmodel.Header) {
	title := h.Couple()
	if title == "" {
		title = "Your wedding"
	}
	r.printf("%s", title)
	if days, ok := h.DaysUntilWedding(); ok {
		switch {
		case days > 0:
			r.printf("  |  %s days to go", r.f.Count(days))
		case days == 0:
			r.printf("  |  today is the day")
		default:
			r.printf("  |  married %s days ago", r.f.Count(-days))
		}
	}
	if n := h.UnreadCount(); n > 0 {
		r.printf("  |  %d unread", n)
	}
	r.printf("\n\n")
}

// Home renders the dashboard overview.
func (r *Renderer) Home(tasks *viewmodel.Tasks, budget *viewmodel.Budget, guests *viewmodel.Guests) {
	r.printf("%s", heading("Dashboard"))

	r.printf("Tasks %s %s\n", bar(tasks.Progress(), 20), r.f.Percent(tasks.Progress()))
	preview := tasks.Preview()
	if len(preview) == 0 {
		r.printf("  No tasks yet.\n")
	}
	for _, t := range preview {
		r.printf("  %s %s (due %s)\n", checkbox(t.Completed), t.Title, t.DueDate)
	}

	s := budget.Summary()
	r.printf("\nBudget\n")
	if s.Configured() {
		r.printf("  %s of %s spent %s\n", r.f.Decimal(s.TotalSpent), r.f.Decimal(s.Total), bar(s.SpentPercentage, 20))
	} else {
		r.printf("  No budget set.\n")
	}

	g := guests.Summary()
	r.printf("\nGuests\n  %d total, %d confirmed, %d pending, %d declined\n", g.Total, g.Confirmed, g.Pending, g.Declined)
}

// Budget renders the budget page.
func (r *Renderer) Budget(b *viewmodel.Budget) {
	r.printf("%s", heading("Budget"))
	s := b.Summary()
	if !s.Configured() {
		r.printf("No total budget set.\n")
	} else {
		r.printf("Total      %s\n", r.f.Decimal(s.Total))
		r.printf("Spent      %s (%s)\n", r.f.Decimal(s.TotalSpent), r.f.Percent(s.SpentPercentage))
		r.printf("Remaining  %s\n", r.f.Decimal(s.Remaining))
		if s.OverBudget {
			r.printf("You are over budget.\n")
		}
	}
	r.printf("Allocated  %s\n\n", r.f.Decimal(s.TotalAllocated))

	rows := b.Rows()
	if len(rows) == 0 {
		r.printf("No categories yet.\n")
		return
	}
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tCATEGORY\tSPENT\tALLOCATED\tREMAINING\tPROGRESS")
		for _, row := range rows {
			flag := ""
			if row.Progress.OverBudget {
				flag = " over"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s %s%s\n",
				row.ID, row.Name, r.f.Money(row.Spent), r.f.Money(row.Allocated),
				r.f.Money(row.Remaining), bar(row.Progress.Display, 10), r.f.Percent(row.Progress.Percentage), flag)
		}
	})
	for _, row := range rows {
		if len(row.Expenses) == 0 {
			continue
		}
		r.printf("\n%s expenses\n", row.Name)
		for _, e := range row.Expenses {
			date := e.Date
			if date == "" {
				date = "-"
			}
			r.printf("  %s  %-10s  %s  %s\n", e.ID, date, r.f.Money(e.Amount), e.Description)
		}
	}
}

// Guests renders the guest list with the active filter applied.
func (r *Renderer) Guests(g *viewmodel.Guests) {
	r.printf("%s", heading("Guests"))
	s := g.Summary()
	r.printf("%d total  %d confirmed  %d pending  %d declined\n", s.Total, s.Confirmed, s.Pending, s.Declined)

	f := g.Filter()
	if f.Side != calculator.FilterAll || f.Status != calculator.FilterAll || f.Search != "" {
		r.printf("Filter: side=%s status=%s search=%q\n", f.Side, f.Status, f.Search)
	}
	r.printf("\n")

	visible := g.Visible()
	if len(visible) == 0 {
		r.printf("No guests match.\n")
		return
	}
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tSIDE\tSTATUS\tGROUP")
		for _, guest := range visible {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", guest.ID, guest.Name, guest.Side, guest.Status, guest.Group)
		}
	})
}

// Tasks renders the bucketed task list.
func (r *Renderer) Tasks(t *viewmodel.Tasks) {
	r.printf("%s", heading("Tasks"))
	r.printf("Progress %s %s\n", bar(t.Progress(), 20), r.f.Percent(t.Progress()))

	b := t.Buckets()
	if b.Len() == 0 {
		r.printf("\nNo tasks yet.\n")
		return
	}
	sections := []struct {
		title string
		tasks []models.Task
	}{
		{"Overdue", b.Overdue},
		{"Today", b.Today},
		{"Upcoming", b.Upcoming},
		{"Completed", b.Completed},
	}
	for _, sec := range sections {
		if len(sec.tasks) == 0 {
			continue
		}
		r.printf("\n%s\n", sec.title)
		for _, task := range sec.tasks {
			r.printf("  %s %s  %s  %s\n", checkbox(task.Completed), task.ID, task.DueDate, task.Title)
		}
	}
}

// Notifications renders the inbox for one tab.
func (r *Renderer) Notifications(n *viewmodel.Notifications, tab string) {
	r.printf("%s", heading("Notifications"))
	r.printf("%d unread\n\n", n.UnreadCount())
	list := n.List(tab)
	if len(list) == 0 {
		r.printf("You're all caught up.\n")
		return
	}
	for _, item := range list {
		marker := " "
		if !item.Read {
			marker = "*"
		}
		r.printf("%s %s  %s  %s\n", marker, item.ID, item.CreatedAt.Local().Format("Jan 2 15:04"), item.Message)
	}
}

// Vendors renders the vendor home: categories and featured vendors.
func (r *Renderer) Vendors(v *viewmodel.Vendors, categories []string) {
	r.printf("%s", heading("Vendors"))
	r.printf("Categories: %s\n\nFeatured\n", strings.Join(categories, ", "))
	r.vendorList(v, v.Featured())
}

// VendorSearch renders the catalog entries matching query.
func (r *Renderer) VendorSearch(v *viewmodel.Vendors, query string) {
	r.printf("%s", heading(fmt.Sprintf("Vendors matching %q", query)))
	r.vendorList(v, v.Search(query))
}

// VendorCategory renders one category page.
func (r *Renderer) VendorCategory(v *viewmodel.Vendors, slug string) {
	cat, vendors, ok := v.InCategory(slug)
	if !ok {
		r.printf("Category %q not found.\n", slug)
		return
	}
	r.printf("%s", heading(cat.Name))
	r.vendorList(v, vendors)
}

// MyVendors renders the saved vendors with category chips.
func (r *Renderer) MyVendors(v *viewmodel.Vendors) {
	r.printf("%s", heading("My Vendors"))
	if chips := v.Chips(); len(chips) > 0 {
		r.printf("%s\n\n", strings.Join(chips, " | "))
	}
	saved := v.MyVendors()
	if len(saved) == 0 {
		r.printf("You haven't saved any vendors yet.\n")
		return
	}
	r.vendorList(v, saved)
}

func (r *Renderer) vendorList(v *viewmodel.Vendors, vendors []models.Vendor) {
	if len(vendors) == 0 {
		r.printf("No vendors.\n")
		return
	}
	r.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "\tID\tNAME\tCATEGORY\tLOCATION\tRATING\tPRICE")
		for _, vendor := range vendors {
			saved := " "
			if v.IsSaved(vendor.ID) {
				saved = "♥"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
				saved, vendor.ID, vendor.Name, vendor.Category, vendor.Location, vendor.Rating, vendor.Price)
		}
	})
}

// Settings renders the profile and preferences.
func (r *Renderer) Settings(s *viewmodel.Settings) {
	r.printf("%s", heading("Settings"))
	if p := s.Profile.Value(); p != nil {
		r.printf("Name          %s\n", p.Name)
		r.printf("Partner       %s\n", p.PartnerName)
		r.printf("Wedding date  %s\n", p.WeddingDate)
		if p.HeroImage != "" {
			r.printf("Hero image    %s\n", p.HeroImage)
		}
	}
	state := "on"
	if !s.Prefs.Value().DueDateReminder {
		state = "off"
	}
	r.printf("Due-date reminders  %s\n", state)
}

// Onboarding renders the onboarding prompt.
func (r *Renderer) Onboarding() {
	r.printf("%s", heading("Welcome"))
	r.printf("Tell us your names and wedding date to get started:\n")
	r.printf("  personalize -name <you> -partner <partner> -date YYYY-MM-DD\n")
}

// Message renders a single status line, used for public pages and redirects.
func (r *Renderer) Message(format string, args ...any) {
	r.printf(format+"\n", args...)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
