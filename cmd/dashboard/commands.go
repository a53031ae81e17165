package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/gate"
	"github.com/knotcraft/Pre-production/internal/identity"
	"github.com/knotcraft/Pre-production/internal/viewmodel"
)

// dispatch runs one command.
func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signUp(ctx, args)
	case "login":
		return a.signIn(ctx, args)
	case "verify":
		return a.verify(ctx, args)
	case "resend-verification":
		return a.resend(ctx)
	case "logout":
		a.session.SignOut(ctx)
		a.render.Message("Signed out.")
		return nil
	case "whoami":
		return a.whoami(ctx)

	case "show", "watch":
		return a.page(ctx, cmd, args)

	case "personalize":
		return a.personalize(ctx, args)

	case "add-task", "toggle-task", "delete-task":
		return a.taskCommand(ctx, cmd, args)
	case "add-guest", "rsvp", "delete-guest":
		return a.guestCommand(ctx, cmd, args)
	case "set-total", "add-category", "add-expense", "delete-expense":
		return a.budgetCommand(ctx, cmd, args)
	case "open", "mark-all-read":
		return a.inboxCommand(ctx, cmd, args)
	case "save-vendor", "remove-vendor":
		return a.vendorCommand(ctx, cmd, args)
	case "save-profile", "hero", "reminders", "delete-all-tasks":
		return a.settingsCommand(ctx, cmd, args)
	}
	return fmt.Errorf("unknown command %q, run \"dashboard help\"", cmd)
}

// parse parses command flags and returns the positional arguments.
func parse(name string, args []string, define func(fs *flag.FlagSet)) ([]string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return fs.Args(), nil
}

// positional checks that exactly n positional arguments were given.
func positional(name string, args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: dashboard %s %s", name, usage)
	}
	return nil
}

func (a *app) signUp(ctx context.Context, args []string) error {
	var email, password, name string
	if _, err := parse("signup", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "")
		fs.StringVar(&password, "password", "", "")
		fs.StringVar(&name, "name", "", "")
	}); err != nil {
		return err
	}
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	st, err := a.session.SignUp(ctx, email, password, name)
	if err != nil {
		return err
	}
	a.render.Message("Account created for %s.", st.Email)
	if st.NeedsVerification() {
		a.render.Message("Check your email for a verification link, then run: dashboard verify <token>")
	}
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	var email, password string
	if _, err := parse("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "")
		fs.StringVar(&password, "password", "", "")
	}); err != nil {
		return err
	}
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	st, err := a.session.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	a.render.Message("Signed in as %s.", st.Email)
	if st.NeedsVerification() {
		hint(a, gate.PathVerifyEmail)
	}
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	if err := positional("verify", args, 1, "<token>"); err != nil {
		return err
	}
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	st, err := a.session.VerifyEmail(ctx, args[0])
	if err != nil {
		return err
	}
	a.render.Message("Email %s verified.", st.Email)
	return nil
}

func (a *app) resend(ctx context.Context) error {
	if _, err := a.resolve(ctx); err != nil {
		return err
	}
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	if err := a.session.ResendVerification(ctx); err != nil {
		return err
	}
	a.render.Message("Verification email sent.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	st, err := a.resolve(ctx)
	if err != nil {
		return err
	}
	if st.Status != identity.SignedIn {
		a.render.Message("Not signed in.")
		return nil
	}
	verified := "verified"
	if st.NeedsVerification() {
		verified = "not verified"
	}
	a.render.Message("%s <%s> (%s)", st.DisplayName, st.Email, verified)
	return nil
}

func (a *app) page(ctx context.Context, cmd string, args []string) error {
	var po pageOptions
	rest, err := parse(cmd, args, func(fs *flag.FlagSet) {
		fs.StringVar(&po.guestFilter.Side, "side", "", "guest side filter")
		fs.StringVar(&po.guestFilter.Status, "status", "", "guest RSVP filter")
		fs.StringVar(&po.guestFilter.Search, "search", "", "guest search")
		fs.StringVar(&po.chip, "category", calculator.AllCategories, "my-vendors category chip")
		fs.StringVar(&po.query, "q", "", "vendor search")
	})
	if err != nil {
		return err
	}
	pathname := gate.PathHome
	if len(rest) > 0 {
		pathname = rest[0]
	}
	if cmd == "watch" {
		return a.watch(ctx, pathname, po)
	}
	return a.show(ctx, pathname, po)
}

// withModel gates pathname, mounts the page's view model and runs fn once it is ready.
func withModel[T mountable](ctx context.Context, a *app, pathname string, newModel func(uid string) (T, error), fn func(ctx context.Context, m T) error) error {
	st, _, err := a.requirePage(ctx, pathname)
	if err != nil {
		return err
	}
	m, err := newModel(st.UID)
	if err != nil {
		return err
	}
	if err := m.Mount(ctx); err != nil {
		return err
	}
	defer m.Unmount()

	ctx, cancel := a.timeout(ctx)
	defer cancel()
	if err := m.WaitReady(ctx); err != nil {
		return err
	}
	return fn(ctx, m)
}

func (a *app) personalize(ctx context.Context, args []string) error {
	var in viewmodel.ProfileInput
	if _, err := parse("personalize", args, profileFlags(&in)); err != nil {
		return err
	}
	st, _, err := a.requirePage(ctx, gate.PathOnboarding)
	if err != nil {
		return err
	}
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	return viewmodel.NewOnboarding(a.store, st.UID, a.options()).Submit(ctx, in)
}

func profileFlags(in *viewmodel.ProfileInput) func(fs *flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.StringVar(&in.Name, "name", "", "")
		fs.StringVar(&in.PartnerName, "partner", "", "")
		fs.StringVar(&in.WeddingDate, "date", "", "")
	}
}

func (a *app) taskCommand(ctx context.Context, cmd string, args []string) error {
	var in viewmodel.TaskInput
	rest, err := parse(cmd, args, func(fs *flag.FlagSet) {
		fs.StringVar(&in.Title, "title", "", "")
		fs.StringVar(&in.DueDate, "due", "", "")
		fs.StringVar(&in.Notes, "notes", "", "")
	})
	if err != nil {
		return err
	}
	if cmd != "add-task" {
		if err := positional(cmd, rest, 1, "<task id>"); err != nil {
			return err
		}
	}
	newTasks := func(uid string) (*viewmodel.Tasks, error) {
		return viewmodel.NewTasks(a.store, uid, a.options()), nil
	}
	return withModel(ctx, a, "/tasks", newTasks, func(ctx context.Context, t *viewmodel.Tasks) error {
		switch cmd {
		case "add-task":
			id, err := t.AddTask(ctx, in)
			if err == nil {
				a.render.Message("Task %s added.", id)
			}
			return err
		case "toggle-task":
			return t.ToggleTask(ctx, rest[0])
		default:
			return t.DeleteTask(ctx, rest[0])
		}
	})
}

func (a *app) guestCommand(ctx context.Context, cmd string, args []string) error {
	var in viewmodel.GuestInput
	rest, err := parse(cmd, args, func(fs *flag.FlagSet) {
		fs.StringVar(&in.Name, "name", "", "")
		fs.StringVar(&in.Side, "side", "", "bride, groom or both")
		fs.StringVar(&in.Status, "status", "", "pending, confirmed or declined")
		fs.StringVar(&in.Group, "group", "", "")
		fs.StringVar(&in.Email, "email", "", "")
		fs.StringVar(&in.Notes, "notes", "", "")
	})
	if err != nil {
		return err
	}
	switch cmd {
	case "rsvp":
		err = positional(cmd, rest, 2, "<guest id> <status>")
	case "delete-guest":
		err = positional(cmd, rest, 1, "<guest id>")
	}
	if err != nil {
		return err
	}
	newGuests := func(uid string) (*viewmodel.Guests, error) {
		return viewmodel.NewGuests(a.store, uid, a.options()), nil
	}
	return withModel(ctx, a, "/guests", newGuests, func(ctx context.Context, g *viewmodel.Guests) error {
		switch cmd {
		case "add-guest":
			id, err := g.AddGuest(ctx, in)
			if err == nil {
				a.render.Message("Guest %s added.", id)
			}
			return err
		case "rsvp":
			return g.SetStatus(ctx, rest[0], rest[1])
		default:
			return g.DeleteGuest(ctx, rest[0])
		}
	})
}

func (a *app) budgetCommand(ctx context.Context, cmd string, args []string) error {
	var name, allocated, category, amount, desc, date string
	rest, err := parse(cmd, args, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "name", "", "")
		fs.StringVar(&allocated, "allocated", "", "")
		fs.StringVar(&category, "category", "", "")
		fs.StringVar(&amount, "amount", "", "")
		fs.StringVar(&desc, "desc", "", "")
		fs.StringVar(&date, "date", "", "")
	})
	if err != nil {
		return err
	}
	switch cmd {
	case "set-total":
		err = positional(cmd, rest, 1, "<amount>")
	case "delete-expense":
		err = positional(cmd, rest, 2, "<category id> <expense id>")
	}
	if err != nil {
		return err
	}
	newBudget := func(uid string) (*viewmodel.Budget, error) {
		return viewmodel.NewBudget(a.store, uid, a.options()), nil
	}
	return withModel(ctx, a, "/budget", newBudget, func(ctx context.Context, b *viewmodel.Budget) error {
		switch cmd {
		case "set-total":
			return b.SetTotal(ctx, rest[0])
		case "add-category":
			id, err := b.AddCategory(ctx, name, allocated)
			if err == nil {
				a.render.Message("Category %s added.", id)
			}
			return err
		case "add-expense":
			id, err := b.AddExpense(ctx, category, desc, amount, date)
			if err == nil {
				a.render.Message("Expense %s added.", id)
			}
			return err
		default:
			return b.DeleteExpense(ctx, rest[0], rest[1])
		}
	})
}

func (a *app) inboxCommand(ctx context.Context, cmd string, args []string) error {
	if cmd == "open" {
		if err := positional(cmd, args, 1, "<notification id>"); err != nil {
			return err
		}
	}
	newInbox := func(uid string) (*viewmodel.Notifications, error) {
		return viewmodel.NewNotifications(a.store, uid, a.options()), nil
	}
	return withModel(ctx, a, "/notifications", newInbox, func(ctx context.Context, n *viewmodel.Notifications) error {
		if cmd == "open" {
			link, err := n.Open(ctx, args[0])
			if err == nil && link != "" {
				a.render.Message("Opens %s", link)
			}
			return err
		}
		changed, err := n.MarkAllRead(ctx)
		if err == nil && changed == 0 {
			a.render.Message("Nothing unread.")
		}
		return err
	})
}

func (a *app) vendorCommand(ctx context.Context, cmd string, args []string) error {
	if err := positional(cmd, args, 1, "<vendor id>"); err != nil {
		return err
	}
	newVendors := func(uid string) (*viewmodel.Vendors, error) {
		return a.vendors(ctx, uid)
	}
	return withModel(ctx, a, "/my-vendors", newVendors, func(ctx context.Context, v *viewmodel.Vendors) error {
		if cmd == "save-vendor" {
			return v.Save(ctx, args[0])
		}
		return v.Remove(ctx, args[0])
	})
}

func (a *app) settingsCommand(ctx context.Context, cmd string, args []string) error {
	var in viewmodel.ProfileInput
	rest, err := parse(cmd, args, profileFlags(&in))
	if err != nil {
		return err
	}
	var enable bool
	switch cmd {
	case "hero":
		err = positional(cmd, rest, 1, "<image url>")
	case "reminders":
		if err = positional(cmd, rest, 1, "on|off"); err == nil {
			switch rest[0] {
			case "on":
				enable = true
			case "off":
			default:
				err = fmt.Errorf("usage: dashboard reminders on|off")
			}
		}
	}
	if err != nil {
		return err
	}
	newSettings := func(uid string) (*viewmodel.Settings, error) {
		return viewmodel.NewSettings(a.store, uid, a.options()), nil
	}
	return withModel(ctx, a, "/settings", newSettings, func(ctx context.Context, s *viewmodel.Settings) error {
		switch cmd {
		case "save-profile":
			return s.SaveProfile(ctx, in)
		case "hero":
			return s.SetHeroImage(ctx, rest[0])
		case "reminders":
			if err := s.SetDueDateReminders(ctx, enable); err != nil {
				return err
			}
			if enable {
				a.gate.Rescan()
			}
			return nil
		default:
			return s.DeleteAllTasks(ctx)
		}
	})
}
