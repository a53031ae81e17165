package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/catalog"
	"github.com/knotcraft/Pre-production/internal/gate"
	"github.com/knotcraft/Pre-production/internal/identity"
	"github.com/knotcraft/Pre-production/internal/viewmodel"
)

// maxRedirects bounds how many gate redirects one command follows.
const maxRedirects = 4

var errNotRendered = errors.New("page not available")

// mountable is a view model that subscribes to the store.
type mountable interface {
	Mount(ctx context.Context) error
	Unmount()
	WaitReady(ctx context.Context) error
}

// view is one mounted page.
type view struct {
	parts   []mountable
	changes []func() <-chan struct{}
	draw    func()
}

func (v *view) add(m mountable, changed ...func() <-chan struct{}) {
	v.parts = append(v.parts, m)
	v.changes = append(v.changes, changed...)
}

func (v *view) mount(ctx context.Context) error {
	for _, p := range v.parts {
		if err := p.Mount(ctx); err != nil {
			v.unmount()
			return err
		}
	}
	return nil
}

func (v *view) waitReady(ctx context.Context) error {
	for _, p := range v.parts {
		if err := p.WaitReady(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (v *view) unmount() {
	for _, p := range v.parts {
		p.Unmount()
	}
}

// changed fans every part's change signal into one coalescing channel.
func (v *view) changed(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	for _, next := range v.changes {
		go func(next func() <-chan struct{}) {
			for {
				select {
				case <-next():
					select {
					case out <- struct{}{}:
					default:
					}
				case <-ctx.Done():
					return
				}
			}
		}(next)
	}
	return out
}

// resolve restores the saved session and asks the server who it belongs to.
func (a *app) resolve(ctx context.Context) (identity.State, error) {
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	st, err := a.session.Refresh(ctx)
	if err != nil {
		return identity.State{}, fmt.Errorf("failed to resolve session: %w", err)
	}
	return st, nil
}

// route runs the gate for pathname and follows redirects. It returns the pathname
// that ended up rendering.
func (a *app) route(ctx context.Context, st identity.State, pathname string) (string, gate.Outcome, error) {
	for i := 0; i <= maxRedirects; i++ {
		rctx, cancel := a.timeout(ctx)
		outcome := a.gate.Evaluate(rctx, st, pathname)
		cancel()

		switch outcome.Kind {
		case gate.Render:
			return pathname, outcome, nil
		case gate.Redirect:
			a.logger.Debug("gate redirect", "from", pathname, "to", outcome.Target)
			pathname = outcome.Target
		default:
			return pathname, outcome, fmt.Errorf("%s is still loading, try again", pathname)
		}
	}
	return pathname, gate.Outcome{}, fmt.Errorf("too many redirects from %s", pathname)
}

// requirePage routes to pathname and fails unless that exact page renders.
func (a *app) requirePage(ctx context.Context, pathname string) (identity.State, gate.Outcome, error) {
	st, err := a.resolve(ctx)
	if err != nil {
		return st, gate.Outcome{}, err
	}
	landed, outcome, err := a.route(ctx, st, pathname)
	if err != nil {
		return st, outcome, err
	}
	if landed != pathname {
		a.render.Message("Redirected to %s.", landed)
		hint(a, landed)
		return st, outcome, errNotRendered
	}
	return st, outcome, nil
}

// hint explains what a redirect target asks of the user.
func hint(a *app, target string) {
	switch target {
	case gate.PathLogin:
		a.render.Message("Sign in with: dashboard login -email you@example.com -password ...")
	case gate.PathVerifyEmail:
		a.render.Message("Verify your email with: dashboard verify <token>")
	case gate.PathOnboarding:
		a.render.Message("Set up your wedding with: dashboard personalize -name ... -partner ... -date YYYY-MM-DD")
	}
}

// pageOptions tune how a page is drawn.
type pageOptions struct {
	guestFilter calculator.GuestFilter
	chip        string
	query       string
}

// build assembles the view for a rendered app page.
func (a *app) build(ctx context.Context, uid, pathname string, shell bool, po pageOptions) (*view, error) {
	opts := a.options()
	v := &view{}

	var header *viewmodel.Header
	if shell {
		header = viewmodel.NewHeader(a.store, uid, opts)
		v.add(header, header.Profile.Changed, header.Inbox.Changed)
	}
	withHeader := func(draw func()) func() {
		return func() {
			if header != nil {
				a.render.Header(header)
			}
			draw()
		}
	}

	switch {
	case pathname == gate.PathHome:
		tasks := viewmodel.NewTasks(a.store, uid, opts)
		budget := viewmodel.NewBudget(a.store, uid, opts)
		guests := viewmodel.NewGuests(a.store, uid, opts)
		v.add(tasks, tasks.Changed)
		v.add(budget, budget.Changed)
		v.add(guests, guests.Changed)
		v.draw = withHeader(func() { a.render.Home(tasks, budget, guests) })
	case pathname == "/budget":
		budget := viewmodel.NewBudget(a.store, uid, opts)
		v.add(budget, budget.Changed)
		v.draw = withHeader(func() { a.render.Budget(budget) })
	case pathname == "/guests":
		guests := viewmodel.NewGuests(a.store, uid, opts)
		guests.SetFilter(po.guestFilter)
		v.add(guests, guests.Changed)
		v.draw = withHeader(func() { a.render.Guests(guests) })
	case pathname == "/tasks":
		tasks := viewmodel.NewTasks(a.store, uid, opts)
		v.add(tasks, tasks.Changed)
		v.draw = withHeader(func() { a.render.Tasks(tasks) })
	case pathname == "/notifications":
		inbox := viewmodel.NewNotifications(a.store, uid, opts)
		v.add(inbox, inbox.Changed)
		v.draw = withHeader(func() { a.render.Notifications(inbox, a.tab) })
	case pathname == "/vendors", pathname == "/my-vendors", strings.HasPrefix(pathname, "/vendors/"):
		vendors, err := a.vendors(ctx, uid)
		if err != nil {
			return nil, err
		}
		if po.chip != "" {
			vendors.SetCategory(po.chip)
		}
		v.add(vendors, vendors.Changed)
		switch {
		case pathname == "/vendors" && po.query != "":
			v.draw = withHeader(func() { a.render.VendorSearch(vendors, po.query) })
		case pathname == "/vendors":
			names := make([]string, 0, len(catalog.Categories))
			for _, c := range catalog.Categories {
				names = append(names, c.Name)
			}
			v.draw = withHeader(func() { a.render.Vendors(vendors, names) })
		case pathname == "/my-vendors":
			v.draw = withHeader(func() { a.render.MyVendors(vendors) })
		default:
			slug := strings.TrimPrefix(pathname, "/vendors/")
			v.draw = withHeader(func() { a.render.VendorCategory(vendors, slug) })
		}
	case pathname == "/settings":
		settings := viewmodel.NewSettings(a.store, uid, opts)
		v.add(settings, settings.Profile.Changed, settings.Prefs.Changed)
		v.draw = withHeader(func() { a.render.Settings(settings) })
	case pathname == gate.PathOnboarding:
		v.draw = a.render.Onboarding
	default:
		return nil, fmt.Errorf("page not found: %s", pathname)
	}
	return v, nil
}

// vendors loads the catalog and returns an unmounted vendors view model.
func (a *app) vendors(ctx context.Context, uid string) (*viewmodel.Vendors, error) {
	ctx, cancel := a.timeout(ctx)
	defer cancel()
	list, err := catalog.NewStoreSource(a.store, a.logger).Vendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor catalog: %w", err)
	}
	return viewmodel.NewVendors(a.store, uid, list, a.options()), nil
}

// open routes, builds and mounts a page, waiting for its first snapshot.
func (a *app) open(ctx context.Context, pathname string, po pageOptions) (*view, error) {
	st, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}
	landed, outcome, err := a.route(ctx, st, pathname)
	if err != nil {
		return nil, err
	}
	if landed != pathname {
		a.logger.Info("showing redirect target", "requested", pathname, "page", landed)
	}
	if gate.Classify(landed) != gate.PageApp && landed != gate.PathOnboarding {
		a.render.Message("Redirected to %s.", landed)
		hint(a, landed)
		return &view{draw: func() {}}, nil
	}

	v, err := a.build(ctx, st.UID, landed, outcome.Shell, po)
	if err != nil {
		return nil, err
	}
	if err := v.mount(ctx); err != nil {
		return nil, err
	}
	wctx, cancel := a.timeout(ctx)
	defer cancel()
	if err := v.waitReady(wctx); err != nil {
		v.unmount()
		return nil, err
	}
	return v, nil
}

// show renders pathname once.
func (a *app) show(ctx context.Context, pathname string, po pageOptions) error {
	v, err := a.open(ctx, pathname, po)
	if err != nil {
		return err
	}
	defer v.unmount()
	v.draw()
	return nil
}

// watch renders pathname and again after every change until ctx is cancelled.
func (a *app) watch(ctx context.Context, pathname string, po pageOptions) error {
	v, err := a.open(ctx, pathname, po)
	if err != nil {
		return err
	}
	defer v.unmount()

	sched := gate.NewScheduler(a.gate, time.Local, a.logger)
	if err := sched.Start(gate.Midnight); err != nil {
		return err
	}
	defer sched.Stop()

	changed := v.changed(ctx)
	for {
		v.draw()
		select {
		case <-changed:
			a.render.Message("\n--- updated %s ---", time.Now().Format("15:04:05"))
		case <-ctx.Done():
			return nil
		}
	}
}
