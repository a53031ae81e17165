// Package gate decides, for a pathname and identity, whether to show a loading
// placeholder, redirect, or render, and starts the daily reminder scan when a
// user reaches the app.
package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/identity"
	"github.com/knotcraft/Pre-production/internal/models"
	"github.com/knotcraft/Pre-production/internal/reminders"
)

// Scanner runs the due-date reminder scan for a user.
type Scanner interface {
	Run(ctx context.Context, uid string) (reminders.Result, error)
}

// DefaultScanTimeout bounds one background reminder scan.
const DefaultScanTimeout = 30 * time.Second

// Gate evaluates routing decisions. It is safe for concurrent use.
type Gate struct {
	store       docstore.Store
	scanner     Scanner
	logger      *slog.Logger
	scanTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex
	// inApp is the uid whose last evaluation rendered the app shell, or empty.
	inApp string
}

// New creates a Gate. scanner may be nil to disable reminder scans.
func New(store docstore.Store, scanner Scanner, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Gate{
		store:       store,
		scanner:     scanner,
		logger:      logger,
		scanTimeout: DefaultScanTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// WithScanTimeout sets how long one background scan may run before it is cancelled.
// It must be called before the first Evaluate.
func (g *Gate) WithScanTimeout(d time.Duration) *Gate {
	if d > 0 {
		g.scanTimeout = d
	}
	return g
}

// Facts gathers the routing inputs for st and pathname. The profile is read only
// when the decision depends on it; a failed read leaves ProfileLoaded false.
func (g *Gate) Facts(ctx context.Context, st identity.State, pathname string) Facts {
	f := Facts{
		AuthKnown:     st.Status != identity.Unresolved,
		SignedIn:      st.Status == identity.SignedIn,
		EmailVerified: st.EmailVerified,
		UsesPassword:  st.UsesPassword(),
		Page:          Classify(pathname),
	}
	if !f.needsProfile() {
		return f
	}

	snap, err := g.store.Read(ctx, docstore.UserPath(st.UID, "profile"))
	if err != nil {
		g.logger.Warn("profile read failed", "user_id", st.UID, "error", err)
		return f
	}
	profile, err := models.DecodeProfile(snap)
	if err != nil {
		// A malformed record still means the user was onboarded.
		g.logger.Warn("malformed profile", "user_id", st.UID, "error", err)
		f.ProfileExists = true
	} else {
		f.ProfileExists = profile != nil
	}
	f.ProfileLoaded = true
	return f
}

// Evaluate decides what to show for pathname. The first evaluation that renders the
// app shell for a user starts a reminder scan in the background.
func (g *Gate) Evaluate(ctx context.Context, st identity.State, pathname string) Outcome {
	out := Decide(g.Facts(ctx, st, pathname))

	g.mu.Lock()
	entered := false
	if out.Kind == Render && out.Shell {
		entered = g.inApp != st.UID
		g.inApp = st.UID
	} else if out.Kind != Loading {
		g.inApp = ""
	}
	g.mu.Unlock()

	if entered {
		g.scan(st.UID)
	}
	return out
}

// Rescan runs the reminder scan again for the user currently in the app, if any.
// Long-lived sessions call it when the calendar day changes.
func (g *Gate) Rescan() {
	g.mu.Lock()
	uid := g.inApp
	g.mu.Unlock()
	if uid != "" {
		g.scan(uid)
	}
}

func (g *Gate) scan(uid string) {
	if g.scanner == nil || g.ctx.Err() != nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(g.ctx, g.scanTimeout)
		defer cancel()
		res, err := g.scanner.Run(ctx, uid)
		if err != nil {
			g.logger.Error("reminder scan failed", "user_id", uid, "error", err)
			return
		}
		g.logger.Debug("reminder scan finished", "user_id", uid, "outcome", res.Outcome, "created", res.Created)
	}()
}

// Wait blocks until background scans have finished or hit the scan timeout.
func (g *Gate) Wait() {
	g.wg.Wait()
}

// Close cancels background scans and waits for them to return.
func (g *Gate) Close() {
	g.cancel()
	g.wg.Wait()
}
