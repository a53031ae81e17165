// Command dashboard is a terminal client for the knotcraft wedding planner.
//
// Usage:
//
//	dashboard [flags] <command> [command flags] [args]
//
// Run "dashboard help" for the command list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"

	"github.com/knotcraft/Pre-production/internal/config"
	"github.com/knotcraft/Pre-production/internal/dashboard"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/docstore/remote"
	"github.com/knotcraft/Pre-production/internal/gate"
	"github.com/knotcraft/Pre-production/internal/identity"
	"github.com/knotcraft/Pre-production/internal/metrics"
	"github.com/knotcraft/Pre-production/internal/middleware"
	"github.com/knotcraft/Pre-production/internal/reminders"
	"github.com/knotcraft/Pre-production/internal/storage/sqlite"
	"github.com/knotcraft/Pre-production/internal/viewmodel"
	"github.com/knotcraft/Pre-production/pkg/logging"
)

const usage = `Usage: dashboard [flags] <command> [args]

Account:
  signup -email E -password P [-name N]   create an account
  login -email E -password P              sign in
  verify <token>                          verify your email address
  resend-verification                     send a new verification email
  logout                                  sign out
  whoami                                  show the signed-in account

Pages:
  show [path]          render a page (default /): / /budget /guests /tasks
                       /notifications /vendors /vendors/<slug> /my-vendors /settings
  watch [path]         render a page again whenever its data changes
  page flags: -side -status -search (guests), -category (my vendors), -q (vendor search)

Actions:
  personalize -name N -partner P -date YYYY-MM-DD
  add-task -title T -due YYYY-MM-DD [-notes N] | toggle-task <id> | delete-task <id>
  add-guest -name N [-side S] [-status S] [-group G] | rsvp <id> <status> | delete-guest <id>
  set-total <amount> | add-category -name N [-allocated A]
  add-expense -category ID -amount A [-desc D] [-date YYYY-MM-DD] | delete-expense <categoryID> <expenseID>
  open <notificationID> | mark-all-read
  save-vendor <id> | remove-vendor <id>
  save-profile -name N -partner P -date YYYY-MM-DD | hero <url>
  reminders on|off | delete-all-tasks

Flags:
`

func main() {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	serverURL := fs.String("server", "", "server URL (overrides KNOTCRAFT_SERVER_URL)")
	tab := fs.String("tab", viewmodel.InboxAll, "notifications tab: all, tasks or reminders")
	level := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	metricsAddr := fs.String("metrics-addr", "", "serve client metrics on this address, e.g. :9091")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	logger := logging.New(os.Stderr, logging.ParseLevel(*level), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)

	if fs.NArg() == 0 || fs.Arg(0) == "help" {
		fs.Usage()
		return
	}

	cfg, err := config.LoadDashboard()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if *metricsAddr != "" {
		m = metrics.New()
		srv := &http.Server{Addr: *metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	a, err := newApp(cfg, logger, os.Stdout, *tab, m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	a.close()
	if err != nil {
		if !reported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// reported reports whether err was already shown to the user as a toast or message.
func reported(err error) bool {
	var write *viewmodel.RemoteWriteError
	return viewmodel.IsValidation(err) || errors.As(err, &write) || errors.Is(err, errNotRendered)
}

// app holds the client's collaborators for one command.
type app struct {
	cfg     config.Dashboard
	logger  *slog.Logger
	out     io.Writer
	tab     string
	local   *sqlite.SQLiteStore
	session *identity.Session
	remote  *remote.Store
	store   docstore.Store
	gate    *gate.Gate
	render  *dashboard.Renderer
}

// newApp wires the client. m may be nil.
func newApp(cfg config.Dashboard, logger *slog.Logger, out io.Writer, tab string, m *metrics.Metrics) (*app, error) {
	local, err := sqlite.New(cfg.LocalDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	httpClient := &http.Client{}
	session := identity.NewSession(httpClient, cfg.ServerURL, local, logger)
	rs := remote.New(httpClient, cfg.ServerURL, logger,
		connect.WithInterceptors(middleware.BearerToken(session.Token)))

	var store docstore.Store = rs
	rc := reminders.Config{Markers: local, Logger: logger}
	if m != nil {
		store = m.InstrumentStore(rs)
		rc.Created = m.RemindersCreated
	}
	rc.Store = store
	generator := reminders.New(rc)

	return &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		tab:     tab,
		local:   local,
		session: session,
		remote:  rs,
		store:   store,
		gate:    gate.New(store, generator, logger).WithScanTimeout(cfg.Timeout),
		render:  dashboard.NewRenderer(out, dashboard.NewFormatter(cfg.Locale)),
	}, nil
}

// close lets a reminder scan started by this command finish, then releases resources.
func (a *app) close() {
	a.gate.Wait()
	a.gate.Close()
	a.remote.Close()
	a.local.Close()
}

// options returns view model options that print toasts.
func (a *app) options() viewmodel.Options {
	return viewmodel.Options{
		Logger: a.logger,
		Toaster: viewmodel.ToasterFunc(func(t viewmodel.Toast) {
			switch t.Variant {
			case viewmodel.VariantDestructive:
				fmt.Fprintf(os.Stderr, "✗ %s %s\n", t.Title, t.Description)
			default:
				fmt.Fprintf(a.out, "✓ %s %s\n", t.Title, t.Description)
			}
		}),
	}
}

// timeout bounds one round of server calls.
func (a *app) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Timeout)
}
