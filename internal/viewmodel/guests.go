package viewmodel

import (
	"context"
	"strings"
	"sync"

	"github.com/knotcraft/Pre-production/internal/calculator"
	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Guests mirrors users/{uid}/guests.
type Guests struct {
	*Mirror[[]models.Guest]
	act actions

	mu     sync.Mutex
	filter calculator.GuestFilter
}

// GuestInput is the add/edit guest form.
type GuestInput struct {
	Name   string
	Side   string
	Status string
	Group  string
	Email  string
	Notes  string
}

// NewGuests creates an unmounted guest-list view model for uid.
func NewGuests(store docstore.Store, uid string, opts Options) *Guests {
	act := newActions(store, uid, opts)
	return &Guests{
		Mirror: NewMirror(store, docstore.UserPath(uid, "guests"), decodeGuests, act.logger),
		act:    act,
	}
}

func decodeGuests(snap docstore.Snapshot) ([]models.Guest, []string) {
	return collect(models.DecodeGuests(snap))
}

// SetFilter replaces the filter bar state.
func (g *Guests) SetFilter(f calculator.GuestFilter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter = f
}

// Filter returns the filter bar state.
func (g *Guests) Filter() calculator.GuestFilter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filter
}

// Summary counts RSVPs over the whole list, ignoring the filter.
func (g *Guests) Summary() calculator.GuestSummary {
	return calculator.SummarizeGuests(g.Value())
}

// Visible returns the guests that pass the current filter.
func (g *Guests) Visible() []models.Guest {
	return calculator.FilterGuests(g.Value(), g.Filter())
}

func (g *Guests) find(id string) (models.Guest, bool) {
	for _, guest := range g.Value() {
		if guest.ID == id {
			return guest, true
		}
	}
	return models.Guest{}, false
}

func (g *Guests) validate(in GuestInput, defaultStatus models.RSVPStatus) (models.Guest, error) {
	name, ok := required(in.Name)
	if !ok {
		return models.Guest{}, g.act.reject("name", "guest name is required")
	}
	side, ok := models.ParseSide(in.Side)
	if !ok {
		return models.Guest{}, g.act.reject("side", "side must be bride, groom or both")
	}
	status := defaultStatus
	if strings.TrimSpace(in.Status) != "" {
		if status, ok = models.ParseStatus(in.Status); !ok {
			return models.Guest{}, g.act.reject("status", "status must be pending, confirmed or declined")
		}
	}
	return models.Guest{
		Name:   name,
		Side:   side,
		Status: status,
		Group:  strings.TrimSpace(in.Group),
		Email:  strings.TrimSpace(in.Email),
		Notes:  strings.TrimSpace(in.Notes),
	}, nil
}

// AddGuest creates a guest and returns its id. Status is pending unless given.
func (g *Guests) AddGuest(ctx context.Context, in GuestInput) (string, error) {
	guest, err := g.validate(in, models.StatusPending)
	if err != nil {
		return "", err
	}
	id := g.act.store.GenerateKey(g.Path())
	err = g.act.run(ctx, "add the guest", "Guest added.", func(ctx context.Context) error {
		return g.act.store.Write(ctx, docstore.Join(g.Path(), id), guest.Fields())
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateGuest merges the edited fields into an existing guest. Cleared optional
// fields are removed.
func (g *Guests) UpdateGuest(ctx context.Context, id string, in GuestInput) error {
	current, ok := g.find(id)
	if !ok {
		return g.act.reject("guest", "no such guest")
	}
	guest, err := g.validate(in, current.Status)
	if err != nil {
		return err
	}
	return g.act.run(ctx, "update the guest", "Guest updated.", func(ctx context.Context) error {
		return g.act.store.Merge(ctx, docstore.Join(g.Path(), id), map[string]any{
			"name":   guest.Name,
			"side":   string(guest.Side),
			"status": string(guest.Status),
			"group":  optional(guest.Group),
			"email":  optional(guest.Email),
			"notes":  optional(guest.Notes),
		})
	})
}

// SetStatus records an RSVP from the inline status control.
func (g *Guests) SetStatus(ctx context.Context, id, status string) error {
	if _, ok := g.find(id); !ok {
		return g.act.reject("guest", "no such guest")
	}
	s, ok := models.ParseStatus(status)
	if !ok {
		return g.act.reject("status", "status must be pending, confirmed or declined")
	}
	return g.act.run(ctx, "update the RSVP", "", func(ctx context.Context) error {
		return g.act.store.Merge(ctx, docstore.Join(g.Path(), id), map[string]any{"status": string(s)})
	})
}

// DeleteGuest removes a guest.
func (g *Guests) DeleteGuest(ctx context.Context, id string) error {
	return g.act.run(ctx, "delete the guest", "Guest deleted.", func(ctx context.Context) error {
		return g.act.store.Delete(ctx, docstore.Join(g.Path(), id))
	})
}
