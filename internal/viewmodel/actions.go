package viewmodel

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Options configures a view model's collaborators. The zero value is usable.
type Options struct {
	Toaster Toaster
	Logger  *slog.Logger
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Toaster == nil {
		o.Toaster = discardToaster{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// actions issues writes on behalf of one user and reports the outcome as toasts.
type actions struct {
	store   docstore.Store
	uid     string
	toaster Toaster
	logger  *slog.Logger
	now     func() time.Time
}

func newActions(store docstore.Store, uid string, opts Options) actions {
	opts = opts.withDefaults()
	return actions{
		store:   store,
		uid:     uid,
		toaster: opts.Toaster,
		logger:  opts.Logger.With("user_id", uid),
		now:     opts.Now,
	}
}

// reject raises a validation error without touching the store.
func (a actions) reject(field, message string) error {
	err := &ValidationError{Field: field, Message: message}
	a.toaster.Toast(Toast{Variant: VariantDestructive, Title: "Invalid input", Description: err.Error()})
	return err
}

// run performs one write. action reads as "Could not <action>." when it fails.
func (a actions) run(ctx context.Context, action, success string, write func(ctx context.Context) error) error {
	if err := write(ctx); err != nil {
		a.logger.Error("write failed", "action", action, "error", err)
		a.toaster.Toast(Toast{Variant: VariantDestructive, Title: "Error", Description: "Could not " + action + "."})
		return &RemoteWriteError{Action: action, Err: err}
	}
	a.logger.Debug("write successful", "action", action)
	if success != "" {
		a.toaster.Toast(Toast{Variant: VariantSuccess, Title: "Success", Description: success})
	}
	return nil
}

func required(value string) (string, bool) {
	v := strings.TrimSpace(value)
	return v, v != ""
}

func validDate(value string) bool {
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}

// optional maps an empty string to nil so a merge removes the field.
func optional(value string) any {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return nil
}
